// Package index persists embedded records in chromem-go and serves
// nearest-neighbor retrieval over them.
package index

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/philippgille/chromem-go"

	"github.com/sena/anime-rec/internal/embed"
	"github.com/sena/anime-rec/internal/recerr"
)

// Strategy selects how search results are ranked.
type Strategy string

const (
	// StrategySimilarity returns pure ranked nearest neighbors.
	StrategySimilarity Strategy = "similarity"
	// StrategyDiversity re-ranks an over-fetched candidate set with
	// maximal marginal relevance, trading strict similarity order for
	// coverage.
	StrategyDiversity Strategy = "diversity"
)

const defaultFetchMultiplier = 4

// Embedding backends cap how many inputs one request may carry, so the
// corpus is embedded and flushed in bounded batches.
const indexBatchSize = 64

// SearchOptions bound one search call. FetchK and Lambda only apply to
// the diversity strategy; Lambda 0 is a legal value meaning pure
// diversity, so callers supply their own default.
type SearchOptions struct {
	K        int
	Strategy Strategy
	FetchK   int
	Lambda   float64
}

// Store is a handle to one persisted collection. Reads are safe for
// concurrent use; writes happen only during indexing.
type Store struct {
	collection *chromem.Collection
	embedder   embed.Embedder
}

// Build embeds the given texts and persists them under the named
// collection at dir. Building into an existing collection upserts by
// record id, so re-running the indexer merges rather than duplicates.
func Build(ctx context.Context, dir, collection string, texts []string, embedder embed.Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db at %s: %w", dir, err)
	}

	col, err := db.GetOrCreateCollection(collection, nil, embedder.EmbedQuery)
	if err != nil {
		return nil, fmt.Errorf("get/create collection %s: %w", collection, err)
	}

	for start := 0; start < len(texts); start += indexBatchSize {
		end := min(start+indexBatchSize, len(texts))
		batch := texts[start:end]

		vectors, err := embedder.EmbedDocuments(ctx, batch)
		if err != nil {
			return nil, err
		}

		docs := make([]chromem.Document, len(batch))
		for i, text := range batch {
			docs[i] = chromem.Document{
				ID:        recordID(text),
				Content:   text,
				Embedding: vectors[i],
			}
		}
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("add documents: %w", err)
		}
		slog.Info("indexed batch", "done", end, "total", len(texts))
	}

	slog.Info("vector index built", "dir", dir, "collection", collection, "count", col.Count())
	return &Store{collection: col, embedder: embedder}, nil
}

// Open attaches to a previously built collection without re-embedding.
func Open(dir, collection string, embedder embed.Embedder) (*Store, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: no index at %s, run the indexer first", recerr.ErrIndexNotFound, dir)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db at %s: %w", dir, err)
	}

	col := db.GetCollection(collection, embedder.EmbedQuery)
	if col == nil {
		return nil, fmt.Errorf("%w: collection %q at %s, run the indexer first", recerr.ErrIndexNotFound, collection, dir)
	}

	slog.Info("vector index loaded", "dir", dir, "collection", collection, "count", col.Count())
	return &Store{collection: col, embedder: embedder}, nil
}

// Count returns the number of indexed records.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Search embeds the query and returns the texts of up to opts.K
// matching records, ranked by the selected strategy.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) ([]string, error) {
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: search k must be positive", recerr.ErrConfig)
	}
	switch opts.Strategy {
	case StrategySimilarity, "", StrategyDiversity:
	default:
		return nil, fmt.Errorf("%w: unsupported search strategy %q", recerr.ErrConfig, opts.Strategy)
	}

	if s.collection.Count() == 0 {
		return nil, nil
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if opts.Strategy == StrategyDiversity {
		fetchK := opts.FetchK
		if fetchK <= 0 {
			fetchK = defaultFetchMultiplier * opts.K
		}
		candidates, err := s.query(ctx, vec, fetchK)
		if err != nil {
			return nil, err
		}
		return contents(maximalMarginalRelevance(candidates, opts.K, opts.Lambda)), nil
	}

	results, err := s.query(ctx, vec, opts.K)
	if err != nil {
		return nil, err
	}
	return contents(results), nil
}

// query clamps n to the collection size; chromem rejects asking for
// more results than there are documents.
func (s *Store) query(ctx context.Context, vec []float32, n int) ([]chromem.Result, error) {
	if count := s.collection.Count(); n > count {
		n = count
	}
	results, err := s.collection.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	return results, nil
}

func contents(results []chromem.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Content)
	}
	return out
}

func recordID(text string) string {
	h := sha1.Sum([]byte(text))
	return hex.EncodeToString(h[:8])
}
