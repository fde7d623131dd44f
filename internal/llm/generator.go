// Package llm wraps chat-completion backends behind a single Generate
// call, selected by configured provider name.
package llm

import (
	"context"
	"fmt"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/recerr"
)

// Generator produces free-form text for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Groq serves the OpenAI chat-completion wire format, so the groq
// backend is the openai client pointed at Groq's base URL.
const groqBaseURL = "https://api.groq.com/openai/v1"

// New selects the generation backend by configured provider name.
// Sampling parameters are bound once here.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.DefaultProvider {
	case "groq":
		return newOpenAICompatible(cfg.Providers.Groq, groqBaseURL, "GROQ_API_KEY")
	case "openai":
		return newOpenAICompatible(cfg.Providers.OpenAI, "", "OPENAI_API_KEY")
	case "gemini":
		return newGemini(ctx, cfg.Providers.Gemini)
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", recerr.ErrConfig, cfg.DefaultProvider)
	}
}
