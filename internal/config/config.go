package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sena/anime-rec/internal/recerr"
)

type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Index     IndexConfig     `mapstructure:"index"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retriever RetrieverConfig `mapstructure:"retriever"`
	Server    ServerConfig    `mapstructure:"server"`
}

type DataConfig struct {
	RawPath       string `mapstructure:"raw_path"`
	ProcessedPath string `mapstructure:"processed_path"`
}

type IndexConfig struct {
	Dir        string `mapstructure:"dir"`
	Collection string `mapstructure:"collection"`
}

type EmbeddingConfig struct {
	DefaultProvider string             `mapstructure:"default_provider"`
	Providers       EmbeddingProviders `mapstructure:"providers"`
}

type EmbeddingProviders struct {
	Gemini GeminiEmbedding `mapstructure:"gemini"`
	OpenAI OpenAIEmbedding `mapstructure:"openai"`
}

type GeminiEmbedding struct {
	ModelName string `mapstructure:"model_name"`
	APIKey    string `mapstructure:"-"`
}

type OpenAIEmbedding struct {
	ModelName string `mapstructure:"model_name"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"-"`
}

type LLMConfig struct {
	DefaultProvider string       `mapstructure:"default_provider"`
	Providers       LLMProviders `mapstructure:"providers"`
}

type LLMProviders struct {
	Groq   LLMProvider `mapstructure:"groq"`
	OpenAI LLMProvider `mapstructure:"openai"`
	Gemini LLMProvider `mapstructure:"gemini"`
}

type LLMProvider struct {
	Model  ModelParams `mapstructure:"model"`
	APIKey string      `mapstructure:"-"`
}

type ModelParams struct {
	Name        string  `mapstructure:"name"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type RetrieverConfig struct {
	DefaultType string            `mapstructure:"default_type"`
	Settings    RetrieverSettings `mapstructure:"settings"`
}

type RetrieverSettings struct {
	Similarity SearchSettings `mapstructure:"similarity"`
	Diversity  SearchSettings `mapstructure:"diversity"`
}

type SearchSettings struct {
	SearchKwargs SearchKwargs `mapstructure:"search_kwargs"`
}

// Lambda is a pointer so an explicit 0 (pure diversity) is
// distinguishable from the value being absent.
type SearchKwargs struct {
	K      int      `mapstructure:"k"`
	FetchK int      `mapstructure:"fetch_k"`
	Lambda *float64 `mapstructure:"lambda"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", recerr.ErrConfig, path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %w", recerr.ErrConfig, path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.Embedding.DefaultProvider == "" {
		return nil, fmt.Errorf("%w: embedding.default_provider is required", recerr.ErrConfig)
	}
	if cfg.LLM.DefaultProvider == "" {
		return nil, fmt.Errorf("%w: llm.default_provider is required", recerr.ErrConfig)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Data.RawPath == "" {
		cfg.Data.RawPath = "data/anime_with_synopsis.csv"
	}
	if cfg.Data.ProcessedPath == "" {
		cfg.Data.ProcessedPath = "data/anime_processed.csv"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "data/vectors"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "anime_collection"
	}
	if cfg.Embedding.Providers.Gemini.ModelName == "" {
		cfg.Embedding.Providers.Gemini.ModelName = "gemini-embedding-001"
	}
	if cfg.Embedding.Providers.OpenAI.ModelName == "" {
		cfg.Embedding.Providers.OpenAI.ModelName = "text-embedding-3-small"
	}
	if cfg.Retriever.DefaultType == "" {
		cfg.Retriever.DefaultType = "similarity"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
}

// API keys and data paths come from the environment so container
// deployments never have to edit the YAML file.
func applyEnvOverrides(cfg *Config) {
	if p := os.Getenv("RAW_DATA_PATH"); p != "" {
		cfg.Data.RawPath = p
	}
	if p := os.Getenv("PROCESSED_DATA_PATH"); p != "" {
		cfg.Data.ProcessedPath = p
	}
	if p := os.Getenv("VECTOR_DB_PATH"); p != "" {
		cfg.Index.Dir = p
	}
	cfg.Embedding.Providers.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Embedding.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.Providers.Groq.APIKey = os.Getenv("GROQ_API_KEY")
	cfg.LLM.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.Providers.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
}
