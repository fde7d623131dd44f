package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/recerr"
)

type openaiGenerator struct {
	client *openai.Client
	model  config.ModelParams
}

func newOpenAICompatible(cfg config.LLMProvider, baseURL, keyEnv string) (*openaiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", recerr.ErrConfig, keyEnv)
	}
	if cfg.Model.Name == "" {
		return nil, fmt.Errorf("%w: llm model name is required", recerr.ErrConfig)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &openaiGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Generate performs a single chat completion. A failed call surfaces
// immediately; there is no retry here.
func (g *openaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	rsp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model.Name,
		Temperature: g.model.Temperature,
		MaxTokens:   g.model.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", recerr.ErrGeneration, err)
	}
	if len(rsp.Choices) == 0 || rsp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion response", recerr.ErrGeneration)
	}
	return rsp.Choices[0].Message.Content, nil
}
