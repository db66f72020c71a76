package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sumanskitchen/kitchen-go/internal/model"
	"github.com/sumanskitchen/kitchen-go/internal/policy"
	"github.com/sumanskitchen/kitchen-go/internal/repository"
	"github.com/sumanskitchen/kitchen-go/internal/storage"
)

var (
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrForbidden          = errors.New("not the owner of this recipe")
	ErrNotAnImage         = errors.New("file must be an image")
	ErrStorageUnavailable = errors.New("image storage is not configured")
)

// RecipeRepository is the recipe store used by RecipeService.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	ListPublic(ctx context.Context) ([]model.Recipe, error)
	ListByUser(ctx context.Context, userID model.ID) ([]model.Recipe, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	UpdateImage(ctx context.Context, id model.ID, imageURL string) error
	Delete(ctx context.Context, id model.ID) error
}

// ImageStore keeps recipe photos.
type ImageStore interface {
	Configured() bool
	Upload(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// RecipeService handles recipe business logic and enforces ownership.
type RecipeService struct {
	repo   RecipeRepository
	images ImageStore
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(repo RecipeRepository, images ImageStore) *RecipeService {
	return &RecipeService{repo: repo, images: images}
}

// ListPublic returns every public recipe, newest first.
func (s *RecipeService) ListPublic(ctx context.Context) ([]model.RecipeResponse, error) {
	recipes, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(recipes), nil
}

// ListMine returns all recipes owned by userID, public or not.
func (s *RecipeService) ListMine(ctx context.Context, userID model.ID) ([]model.RecipeResponse, error) {
	recipes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(recipes), nil
}

// Get returns a recipe visible to caller. Anonymous callers pass nil.
func (s *RecipeService) Get(ctx context.Context, id string, caller *model.ID) (model.RecipeResponse, error) {
	recipe, _, err := s.load(ctx, id, caller)
	if err != nil {
		return model.RecipeResponse{}, err
	}
	return model.NewRecipeResponse(recipe), nil
}

// Create stores a new recipe owned by userID.
func (s *RecipeService) Create(ctx context.Context, userID model.ID, req model.RecipeRequest) (model.RecipeResponse, error) {
	if err := validateRecipe(req); err != nil {
		return model.RecipeResponse{}, err
	}

	recipe := &model.Recipe{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Ingredients: req.Ingredients,
		Directions:  req.Directions,
		IsPublic:    req.IsPublic,
	}
	if err := s.repo.Create(ctx, recipe); err != nil {
		return model.RecipeResponse{}, err
	}

	return model.NewRecipeResponse(recipe), nil
}

// Update replaces the editable fields of a recipe owned by userID.
func (s *RecipeService) Update(ctx context.Context, userID model.ID, id string, req model.RecipeRequest) (model.RecipeResponse, error) {
	recipe, err := s.loadForWrite(ctx, id, userID)
	if err != nil {
		return model.RecipeResponse{}, err
	}
	if err := validateRecipe(req); err != nil {
		return model.RecipeResponse{}, err
	}

	recipe.Title = strings.TrimSpace(req.Title)
	recipe.Description = strings.TrimSpace(req.Description)
	recipe.Ingredients = req.Ingredients
	recipe.Directions = req.Directions
	recipe.IsPublic = req.IsPublic

	if err := s.repo.Update(ctx, recipe); err != nil {
		return model.RecipeResponse{}, notFound(err)
	}

	return model.NewRecipeResponse(recipe), nil
}

// Delete removes a recipe owned by userID along with its image.
func (s *RecipeService) Delete(ctx context.Context, userID model.ID, id string) error {
	recipe, err := s.loadForWrite(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, recipe.ID); err != nil {
		return notFound(err)
	}

	if recipe.ImageURL != nil {
		s.discardImage(ctx, *recipe.ImageURL)
	}
	return nil
}

// AttachImage compresses and stores a photo for a recipe owned by userID,
// replacing any previous one.
func (s *RecipeService) AttachImage(ctx context.Context, userID model.ID, id, contentType string, data []byte) (model.RecipeResponse, error) {
	recipe, err := s.loadForWrite(ctx, id, userID)
	if err != nil {
		return model.RecipeResponse{}, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return model.RecipeResponse{}, ErrNotAnImage
	}
	if s.images == nil || !s.images.Configured() {
		return model.RecipeResponse{}, ErrStorageUnavailable
	}

	url, err := s.images.Upload(ctx, data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return model.RecipeResponse{}, ErrNotAnImage
		}
		return model.RecipeResponse{}, err
	}

	if err := s.repo.UpdateImage(ctx, recipe.ID, url); err != nil {
		s.discardImage(ctx, url)
		return model.RecipeResponse{}, notFound(err)
	}

	previous := recipe.ImageURL
	recipe.ImageURL = &url
	if previous != nil {
		s.discardImage(ctx, *previous)
	}

	return model.NewRecipeResponse(recipe), nil
}

func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if s.images == nil || !s.images.Configured() {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		slog.Warn("deleting recipe image", "url", url, "error", err)
	}
}

// load fetches a recipe and the caller's permissions on it. Recipes the caller
// cannot see are reported as missing.
func (s *RecipeService) load(ctx context.Context, id string, caller *model.ID) (*model.Recipe, policy.Decision, error) {
	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, policy.Deny, notFound(err)
	}

	decision := policy.Decide(recipe.UserID, recipe.IsPublic, caller)
	if !decision.CanRead() {
		return nil, policy.Deny, ErrRecipeNotFound
	}
	return recipe, decision, nil
}

func (s *RecipeService) loadForWrite(ctx context.Context, id string, userID model.ID) (*model.Recipe, error) {
	recipe, decision, err := s.load(ctx, id, &userID)
	if err != nil {
		return nil, err
	}
	if !decision.CanWrite() {
		return nil, ErrForbidden
	}
	return recipe, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrRecipeNotFound) {
		return ErrRecipeNotFound
	}
	return err
}

func toResponses(recipes []model.Recipe) []model.RecipeResponse {
	out := make([]model.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, model.NewRecipeResponse(&recipes[i]))
	}
	return out
}
