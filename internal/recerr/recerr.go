// Package recerr defines the error categories shared across the
// recommendation pipeline. Components wrap these sentinels with stage
// detail so callers can classify failures with errors.Is without
// depending on the failing package.
package recerr

import "errors"

var (
	// ErrConfig marks a bad or missing configuration value, including an
	// unrecognized provider or strategy name. Fatal to the operation.
	ErrConfig = errors.New("configuration error")

	// ErrSchema marks a raw dataset whose header is missing required
	// columns. Always wrapped in ErrIngestion by the loader.
	ErrSchema = errors.New("dataset schema invalid")

	// ErrIngestion marks any failure while normalizing the raw dataset.
	ErrIngestion = errors.New("ingestion failed")

	// ErrEmbedding wraps embedding backend failures.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration wraps chat completion backend failures.
	ErrGeneration = errors.New("generation failed")

	// ErrIndexNotFound means the vector index was opened before being
	// built. The indexer has to run first.
	ErrIndexNotFound = errors.New("vector index not found")
)
