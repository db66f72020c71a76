package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sumanskitchen/kitchen-go/internal/model"
)

var ErrRecipeNotFound = errors.New("recipe not found")

const recipeColumns = `id, user_id, title, description, ingredients, directions, is_public, image_url, created_at, updated_at`

// RecipeRepository handles recipe persistence operations.
type RecipeRepository struct {
	db  DBTX
	now func() time.Time
}

// NewRecipeRepository creates a new RecipeRepository.
func NewRecipeRepository(db DBTX) *RecipeRepository {
	return &RecipeRepository{db: db, now: time.Now}
}

// Create inserts a recipe, assigning an ID and timestamps.
func (r *RecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	if recipe.ID.IsZero() {
		recipe.ID = model.NewID()
	}
	now := r.now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	ingredients, directions, err := encodeLists(recipe)
	if err != nil {
		return err
	}

	query := `INSERT INTO recipes (` + recipeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		recipe.ID.String(), recipe.UserID.String(), recipe.Title, recipe.Description,
		ingredients, directions, recipe.IsPublic, nullString(recipe.ImageURL),
		recipe.CreatedAt, recipe.UpdatedAt,
	)
	return err
}

// GetByID retrieves a recipe. Malformed IDs are reported as ErrRecipeNotFound.
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	rid, err := model.ParseID(id)
	if err != nil {
		return nil, ErrRecipeNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, rid.String())
	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	return recipe, nil
}

// ListPublic returns all public recipes, newest first.
func (r *RecipeRepository) ListPublic(ctx context.Context) ([]model.Recipe, error) {
	return r.list(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE is_public = TRUE ORDER BY created_at DESC`)
}

// ListByUser returns every recipe owned by userID, newest first.
func (r *RecipeRepository) ListByUser(ctx context.Context, userID model.ID) ([]model.Recipe, error) {
	return r.list(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? ORDER BY created_at DESC`, userID.String())
}

// Update overwrites the editable fields of a recipe and refreshes its UpdatedAt.
func (r *RecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	ingredients, directions, err := encodeLists(recipe)
	if err != nil {
		return err
	}
	recipe.UpdatedAt = r.now().UTC()

	query := `UPDATE recipes
		SET title = ?, description = ?, ingredients = ?, directions = ?, is_public = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		recipe.Title, recipe.Description, ingredients, directions, recipe.IsPublic, recipe.UpdatedAt,
		recipe.ID.String(),
	)
	if err != nil {
		return err
	}

	return requireRow(result, ErrRecipeNotFound)
}

// UpdateImage sets the image URL of a recipe.
func (r *RecipeRepository) UpdateImage(ctx context.Context, id model.ID, imageURL string) error {
	query := `UPDATE recipes SET image_url = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, imageURL, r.now().UTC(), id.String())
	if err != nil {
		return err
	}

	return requireRow(result, ErrRecipeNotFound)
}

// Delete removes a recipe.
func (r *RecipeRepository) Delete(ctx context.Context, id model.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id.String())
	if err != nil {
		return err
	}

	return requireRow(result, ErrRecipeNotFound)
}

func (r *RecipeRepository) list(ctx context.Context, query string, args ...any) ([]model.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}

	return recipes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*model.Recipe, error) {
	var recipe model.Recipe
	var id, userID string
	var ingredients, directions []byte
	var imageURL sql.NullString

	if err := s.Scan(
		&id, &userID, &recipe.Title, &recipe.Description, &ingredients, &directions,
		&recipe.IsPublic, &imageURL, &recipe.CreatedAt, &recipe.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(ingredients, &recipe.Ingredients); err != nil {
		return nil, fmt.Errorf("decoding ingredients: %w", err)
	}
	if err := json.Unmarshal(directions, &recipe.Directions); err != nil {
		return nil, fmt.Errorf("decoding directions: %w", err)
	}

	recipe.ID = model.ID(id)
	recipe.UserID = model.ID(userID)
	recipe.ImageURL = stringPtr(imageURL)

	return &recipe, nil
}

func encodeLists(recipe *model.Recipe) (string, string, error) {
	ingredients, err := json.Marshal(nonNilList(recipe.Ingredients))
	if err != nil {
		return "", "", err
	}
	directions, err := json.Marshal(nonNilList(recipe.Directions))
	if err != nil {
		return "", "", err
	}
	return string(ingredients), string(directions), nil
}

func nonNilList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
