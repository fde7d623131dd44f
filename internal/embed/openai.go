package embed

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/recerr"
)

type openaiEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func newOpenAI(cfg config.OpenAIEmbedding) (*openaiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", recerr.ErrConfig)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openaiEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.ModelName),
	}, nil
}

func (e *openaiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %w", recerr.ErrEmbedding, err)
	}
	if len(rsp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d texts",
			recerr.ErrEmbedding, len(rsp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, d := range rsp.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: openai returned an empty embedding", recerr.ErrEmbedding)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (e *openaiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
