// Package embed turns text into vectors through a configured backend.
package embed

import (
	"context"
	"fmt"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/recerr"
)

// Embedder converts text into fixed-dimension vectors. EmbedQuery has
// the exact signature chromem-go expects for its embedding function, so
// an Embedder can be handed to the index directly.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// New selects the embedding backend by configured provider name.
func New(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.DefaultProvider {
	case "gemini":
		return newGemini(ctx, cfg.Providers.Gemini)
	case "openai":
		return newOpenAI(cfg.Providers.OpenAI)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", recerr.ErrConfig, cfg.DefaultProvider)
	}
}
