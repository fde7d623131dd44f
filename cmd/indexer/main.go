package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/embed"
	"github.com/sena/anime-rec/internal/index"
	"github.com/sena/anime-rec/internal/ingest"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	rawPath := flag.String("raw", "", "raw dataset CSV (overrides config)")
	processedPath := flag.String("processed", "", "processed dataset CSV (overrides config)")
	vectorsDir := flag.String("vectors", "", "vector index directory (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}
	if *rawPath != "" {
		cfg.Data.RawPath = *rawPath
	}
	if *processedPath != "" {
		cfg.Data.ProcessedPath = *processedPath
	}
	if *vectorsDir != "" {
		cfg.Index.Dir = *vectorsDir
	}

	ctx := context.Background()

	// 1. Normalize the raw dataset into combined_info rows.
	loader := ingest.NewLoader(cfg.Data.RawPath, cfg.Data.ProcessedPath)
	processed, err := loader.LoadAndProcess()
	if err != nil {
		slog.Error("data ingestion failed", "error", err)
		os.Exit(1)
	}

	texts, err := ingest.ReadProcessed(processed)
	if err != nil {
		slog.Error("read processed dataset failed", "error", err)
		os.Exit(1)
	}
	if len(texts) == 0 {
		slog.Error("no usable records in dataset", "raw", cfg.Data.RawPath)
		os.Exit(1)
	}

	// 2. Embed and persist into the vector index.
	embedder, err := embed.New(ctx, cfg.Embedding)
	if err != nil {
		slog.Error("create embedder failed", "error", err)
		os.Exit(1)
	}

	store, err := index.Build(ctx, cfg.Index.Dir, cfg.Index.Collection, texts, embedder)
	if err != nil {
		slog.Error("build vector index failed", "error", err)
		os.Exit(1)
	}

	// 3. Leave a report next to the index for operators.
	report := fmt.Sprintf(`Indexing Report
===============
Records:    %d
Collection: %s
Vectors:    %s
Processed:  %s
`, store.Count(), cfg.Index.Collection, cfg.Index.Dir, processed)

	reportPath := filepath.Join(filepath.Dir(cfg.Index.Dir), "index_report.txt")
	if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
		slog.Warn("write index report failed", "error", err)
	}
	fmt.Print(report)

	slog.Info("indexing finished", "records", store.Count())
}
