package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sena/anime-rec/internal/recerr"
)

const sampleConfig = `
data:
  raw_path: testdata/raw.csv
embedding:
  default_provider: gemini
  providers:
    openai:
      model_name: custom-embed
llm:
  default_provider: groq
  providers:
    groq:
      model:
        name: llama-3.1-8b-instant
        temperature: 0.2
        max_tokens: 512
retriever:
  default_type: diversity
  settings:
    diversity:
      search_kwargs:
        k: 4
        fetch_k: 16
        lambda: 0.6
server:
  request_timeout: 30s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Data.RawPath != "testdata/raw.csv" {
		t.Fatalf("unexpected raw path: %s", cfg.Data.RawPath)
	}
	// Unset values fall back to defaults.
	if cfg.Data.ProcessedPath != "data/anime_processed.csv" {
		t.Fatalf("unexpected processed default: %s", cfg.Data.ProcessedPath)
	}
	if cfg.Index.Collection != "anime_collection" {
		t.Fatalf("unexpected collection default: %s", cfg.Index.Collection)
	}
	if cfg.Embedding.Providers.Gemini.ModelName != "gemini-embedding-001" {
		t.Fatalf("unexpected gemini model default: %s", cfg.Embedding.Providers.Gemini.ModelName)
	}
	if cfg.Embedding.Providers.OpenAI.ModelName != "custom-embed" {
		t.Fatalf("explicit value overridden: %s", cfg.Embedding.Providers.OpenAI.ModelName)
	}
	if cfg.LLM.Providers.Groq.Model.MaxTokens != 512 {
		t.Fatalf("unexpected max tokens: %d", cfg.LLM.Providers.Groq.Model.MaxTokens)
	}
	if cfg.Retriever.Settings.Diversity.SearchKwargs.FetchK != 16 {
		t.Fatalf("unexpected fetch_k: %d", cfg.Retriever.Settings.Diversity.SearchKwargs.FetchK)
	}
	if l := cfg.Retriever.Settings.Diversity.SearchKwargs.Lambda; l == nil || *l != 0.6 {
		t.Fatalf("unexpected lambda: %v", l)
	}
	if l := cfg.Retriever.Settings.Similarity.SearchKwargs.Lambda; l != nil {
		t.Fatalf("unset lambda must stay nil, got %v", *l)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.Server.RequestTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RAW_DATA_PATH", "/mnt/data/raw.csv")
	t.Setenv("VECTOR_DB_PATH", "/mnt/vectors")
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Data.RawPath != "/mnt/data/raw.csv" {
		t.Fatalf("RAW_DATA_PATH not applied: %s", cfg.Data.RawPath)
	}
	if cfg.Index.Dir != "/mnt/vectors" {
		t.Fatalf("VECTOR_DB_PATH not applied: %s", cfg.Index.Dir)
	}
	if cfg.LLM.Providers.Groq.APIKey != "gsk-test" {
		t.Fatal("GROQ_API_KEY not applied")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, recerr.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoadMissingProviders(t *testing.T) {
	_, err := Load(writeConfig(t, "llm:\n  default_provider: groq\n"))
	if !errors.Is(err, recerr.ErrConfig) {
		t.Fatalf("expected ErrConfig for missing embedding provider, got %v", err)
	}
}
