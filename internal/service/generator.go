package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sumanskitchen/kitchen-go/internal/model"
	"github.com/sumanskitchen/kitchen-go/internal/storage"
)

var (
	ErrPromptRequired       = errors.New("promptText is required")
	ErrGeneratorUnavailable = errors.New("recipe generation is not configured")
	ErrGenerationFailed     = errors.New("recipe generation failed")
)

const (
	promptInstructions = "Generate a recipe based on the prompt provided. " +
		"The recipe should have a title, a brief description, " +
		"a list of ingredients required, and a list of directions to follow."
	imageInstructions = "Identify the dish in the photo and write a recipe for it. " +
		"The recipe should have a title, a brief description, " +
		"a list of ingredients required, and a list of directions to follow."
)

// CompletionRequest is a single structured-output completion.
// ImageDataURL is optional.
type CompletionRequest struct {
	Instructions string
	Prompt       string
	ImageDataURL string
}

// Completer returns the raw JSON text of a generated recipe.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// GeneratorService turns prompts and photos into unsaved recipe drafts.
type GeneratorService struct {
	completer Completer
}

// NewGeneratorService creates a new GeneratorService. A nil completer disables generation.
func NewGeneratorService(completer Completer) *GeneratorService {
	return &GeneratorService{completer: completer}
}

// FromPrompt generates a draft from a free-text description.
func (s *GeneratorService) FromPrompt(ctx context.Context, prompt string) (model.RecipeDraft, error) {
	if strings.TrimSpace(prompt) == "" {
		return model.RecipeDraft{}, ErrPromptRequired
	}
	if s.completer == nil {
		return model.RecipeDraft{}, ErrGeneratorUnavailable
	}

	return s.generate(ctx, CompletionRequest{
		Instructions: promptInstructions,
		Prompt:       prompt,
	})
}

// FromImage generates a draft from a photo of a dish. The photo is
// recompressed before it is sent.
func (s *GeneratorService) FromImage(ctx context.Context, contentType string, data []byte) (model.RecipeDraft, error) {
	if !strings.HasPrefix(contentType, "image/") || len(data) == 0 {
		return model.RecipeDraft{}, ErrNotAnImage
	}
	if s.completer == nil {
		return model.RecipeDraft{}, ErrGeneratorUnavailable
	}

	jpeg, err := storage.Compress(data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return model.RecipeDraft{}, ErrNotAnImage
		}
		return model.RecipeDraft{}, err
	}

	return s.generate(ctx, CompletionRequest{
		Instructions: imageInstructions,
		Prompt:       "Write a recipe for this dish.",
		ImageDataURL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
	})
}

func (s *GeneratorService) generate(ctx context.Context, req CompletionRequest) (model.RecipeDraft, error) {
	content, err := s.completer.Complete(ctx, req)
	if err != nil {
		return model.RecipeDraft{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var draft model.RecipeDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return model.RecipeDraft{}, fmt.Errorf("%w: decoding model output: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(draft.Title) == "" {
		return model.RecipeDraft{}, fmt.Errorf("%w: model output has no title", ErrGenerationFailed)
	}

	draft.IsPublic = false
	if draft.Ingredients == nil {
		draft.Ingredients = []string{}
	}
	if draft.Directions == nil {
		draft.Directions = []string{}
	}
	return draft, nil
}
