package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/recerr"
)

const geminiGenerateAttempts = 3

type geminiGenerator struct {
	client *genai.Client
	model  config.ModelParams
}

func newGemini(ctx context.Context, cfg config.LLMProvider) (*geminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", recerr.ErrConfig)
	}
	if cfg.Model.Name == "" {
		return nil, fmt.Errorf("%w: llm model name is required", recerr.ErrConfig)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create genai client: %w", recerr.ErrConfig, err)
	}
	return &geminiGenerator{client: client, model: cfg.Model}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.model.Temperature),
		MaxOutputTokens: int32(g.model.MaxTokens),
	}

	// Backoff on quota errors only; anything else surfaces at once.
	var lastErr error
	for attempt := 0; attempt < geminiGenerateAttempts; attempt++ {
		resp, err := g.client.Models.GenerateContent(ctx, g.model.Name, contents, cfg)
		if err != nil {
			lastErr = err
			if !isQuotaErr(err) {
				break
			}
			slog.Warn("gemini generate rate limited, retrying", "attempt", attempt+1, "error", err)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", recerr.ErrGeneration, ctx.Err())
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			}
			continue
		}
		text := resp.Text()
		if text == "" {
			return "", fmt.Errorf("%w: empty generation response", recerr.ErrGeneration)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: gemini generate: %w", recerr.ErrGeneration, lastErr)
}

func isQuotaErr(err error) bool {
	return strings.Contains(err.Error(), "429") || strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}
