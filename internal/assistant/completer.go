package assistant

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrNotConfigured is returned when no language model credentials exist.
var ErrNotConfigured = errors.New("language model is not configured")

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiCompleter is the Completer backed by the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini client for model. An empty apiKey
// yields ErrNotConfigured.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCompleter: create genai client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete sends prompt as a single user turn and returns the response text.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiCompleter.Complete: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GeminiCompleter.Complete: empty response from model")
	}
	return text, nil
}
