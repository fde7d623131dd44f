package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/embed"
	"github.com/sena/anime-rec/internal/index"
	"github.com/sena/anime-rec/internal/llm"
	"github.com/sena/anime-rec/internal/rag"
	"github.com/sena/anime-rec/internal/recerr"
	"github.com/sena/anime-rec/internal/retrieve"
	"github.com/sena/anime-rec/internal/server"
	"github.com/sena/anime-rec/internal/session"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
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
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Expensive clients are constructed once here and passed by handle.
	embedder, err := embed.New(ctx, cfg.Embedding)
	if err != nil {
		slog.Error("create embedder failed", "error", err)
		os.Exit(1)
	}

	store, err := index.Open(cfg.Index.Dir, cfg.Index.Collection, embedder)
	if err != nil {
		if errors.Is(err, recerr.ErrIndexNotFound) {
			slog.Error("vector index missing, run cmd/indexer first", "error", err)
		} else {
			slog.Error("open vector index failed", "error", err)
		}
		os.Exit(1)
	}

	retriever, err := retrieve.New(store, cfg.Retriever)
	if err != nil {
		slog.Error("configure retriever failed", "error", err)
		os.Exit(1)
	}

	generator, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		slog.Error("create generator failed", "error", err)
		os.Exit(1)
	}

	sessions := session.NewStore()
	pipeline := rag.New(retriever, generator, sessions)
	srv := server.New(pipeline, sessions, cfg.Server.RequestTimeout)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
		cancel()
	}()

	slog.Info("server starting",
		"addr", cfg.Server.Addr,
		"llm", cfg.LLM.DefaultProvider,
		"embedding", cfg.Embedding.DefaultProvider,
		"retriever", cfg.Retriever.DefaultType,
	)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
