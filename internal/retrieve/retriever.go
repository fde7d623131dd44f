// Package retrieve binds a configured search strategy to a vector
// index handle.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/index"
	"github.com/sena/anime-rec/internal/recerr"
)

const defaultLambda = 0.5

type Retriever struct {
	store *index.Store
	opts  index.SearchOptions
}

// New resolves the strategy and its parameters from configuration. The
// strategy name and k are validated here so a bad config fails at
// startup, not on the first query.
func New(store *index.Store, cfg config.RetrieverConfig) (*Retriever, error) {
	opts, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("retriever configured",
		"type", cfg.DefaultType,
		"k", opts.K,
		"fetch_k", opts.FetchK,
	)
	return &Retriever{store: store, opts: opts}, nil
}

func resolve(cfg config.RetrieverConfig) (index.SearchOptions, error) {
	var (
		kwargs   config.SearchKwargs
		strategy index.Strategy
	)
	switch cfg.DefaultType {
	case "similarity":
		strategy = index.StrategySimilarity
		kwargs = cfg.Settings.Similarity.SearchKwargs
	case "diversity":
		strategy = index.StrategyDiversity
		kwargs = cfg.Settings.Diversity.SearchKwargs
	default:
		return index.SearchOptions{}, fmt.Errorf("%w: unsupported retriever type %q", recerr.ErrConfig, cfg.DefaultType)
	}

	if kwargs.K <= 0 {
		return index.SearchOptions{}, fmt.Errorf("%w: retriever %s requires search_kwargs.k > 0", recerr.ErrConfig, cfg.DefaultType)
	}

	// Lambda 0 is legal (pure diversity); only an absent value falls
	// back to the default.
	lambda := defaultLambda
	if kwargs.Lambda != nil {
		if *kwargs.Lambda < 0 || *kwargs.Lambda > 1 {
			return index.SearchOptions{}, fmt.Errorf("%w: retriever lambda must be in [0,1]", recerr.ErrConfig)
		}
		lambda = *kwargs.Lambda
	}

	return index.SearchOptions{
		K:        kwargs.K,
		Strategy: strategy,
		FetchK:   kwargs.FetchK,
		Lambda:   lambda,
	}, nil
}

// Retrieve returns the combined texts of the records most relevant to
// the query, at most k of them.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	docs, err := r.store.Search(ctx, query, r.opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("retrieved documents", "query", query, "count", len(docs))
	return docs, nil
}
