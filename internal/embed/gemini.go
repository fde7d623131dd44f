package embed

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

const geminiEmbedAttempts = 3

type geminiEmbedder struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, cfg config.GeminiEmbedding) (*geminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", recerr.ErrConfig)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create genai client: %w", recerr.ErrConfig, err)
	}
	return &geminiEmbedder{client: client, model: cfg.ModelName}, nil
}

func (e *geminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := e.embed(ctx, contents)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d texts",
			recerr.ErrEmbedding, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: gemini returned an empty embedding", recerr.ErrEmbedding)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *geminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.embed(ctx, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", recerr.ErrEmbedding)
	}
	return resp.Embeddings[0].Values, nil
}

// embed retries on quota errors with exponential backoff; the free tier
// throttles embedding calls aggressively.
func (e *geminiEmbedder) embed(ctx context.Context, contents []*genai.Content) (*genai.EmbedContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt < geminiEmbedAttempts; attempt++ {
		resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isQuotaErr(err) {
			break
		}
		slog.Warn("gemini embed rate limited, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", recerr.ErrEmbedding, ctx.Err())
		case <-time.After(time.Duration(1<<attempt) * time.Second):
		}
	}
	return nil, fmt.Errorf("%w: gemini embed: %w", recerr.ErrEmbedding, lastErr)
}

func isQuotaErr(err error) bool {
	return strings.Contains(err.Error(), "429") || strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}
