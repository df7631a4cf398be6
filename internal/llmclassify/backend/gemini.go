package backend

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini wraps Google's genai SDK, grounded on the teacher's
// internal/llm/gemini_client.go.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini backend. apiKey must be non-empty.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

func ptrFloat32(f float32) *float32 { return &f }

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     ptrFloat32(0),
		MaxOutputTokens: 1000,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (g *Gemini) Healthy(ctx context.Context) error {
	_, err := g.Complete(ctx, "ping")
	if err != nil {
		return fmt.Errorf("gemini unreachable: %w", err)
	}
	return nil
}
