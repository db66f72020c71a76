package model

import "time"

// Recipe represents a recipe in the database.
type Recipe struct {
	ID          ID
	UserID      ID
	Title       string
	Description string
	Ingredients []string
	Directions  []string
	IsPublic    bool
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeRequest is the body of create and update requests.
type RecipeRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Directions  []string `json:"directions"`
	IsPublic    bool     `json:"is_public"`
}

// RecipeResponse represents a recipe in API responses.
type RecipeResponse struct {
	ID          ID        `json:"id"`
	UserID      ID        `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	Directions  []string  `json:"directions"`
	IsPublic    bool      `json:"is_public"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewRecipeResponse converts a stored recipe to its API representation.
// Nil slices are emitted as empty JSON arrays.
func NewRecipeResponse(r *Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Ingredients: nonNil(r.Ingredients),
		Directions:  nonNil(r.Directions),
		IsPublic:    r.IsPublic,
		ImageURL:    r.ImageURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RecipeDraft is a generated recipe that has not been saved yet.
type RecipeDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Directions  []string `json:"directions"`
	IsPublic    bool     `json:"is_public"`
}

// GenerateFromPromptRequest represents a recipe generation request.
type GenerateFromPromptRequest struct {
	PromptText string `json:"promptText"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
