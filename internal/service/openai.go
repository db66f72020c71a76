package service

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// recipeSchema is the structured output shape requested from the model.
var recipeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"ingredients": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"directions":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required":             []string{"title", "description", "ingredients", "directions"},
	"additionalProperties": false,
}

// OpenAICompleter implements Completer with the OpenAI chat completions API.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter returns nil when apiKey is empty so generation reports itself unavailable.
func NewOpenAICompleter(apiKey, model string, opts ...option.RequestOption) *OpenAICompleter {
	if apiKey == "" {
		return nil
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Complete asks the model for a recipe and returns the JSON content of the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	user := openai.UserMessage(req.Prompt)
	if req.ImageDataURL != "" {
		user = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: req.ImageDataURL}),
		})
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instructions),
			user,
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "recipe",
					Description: openai.String("A recipe with title, description, ingredients and directions"),
					Schema:      recipeSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
		return "", errors.New("model refused: " + refusal)
	}

	return resp.Choices[0].Message.Content, nil
}
