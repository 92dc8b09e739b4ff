// Package index persists passage vectors with their metadata and serves
// nearest-neighbor search over them.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/sihabsafin/pagewise/config"
)

// Entry is one indexed passage: text, metadata, and its embedding.
type Entry struct {
	ID         string
	DocumentID string
	Filename   string
	Page       int
	Text       string
	Embedding  []float32
}

// Match is a search hit, ranked by descending cosine similarity.
type Match struct {
	DocumentID string
	Filename   string
	Page       int
	Text       string
	Similarity float32
}

// VectorIndex is the contract the retrieval pipeline requires from a vector
// store. Upserted entries are queryable as soon as the call returns. Search
// returns at most k matches, every stored entry when fewer exist. Clear
// deletes everything; callers reset their local view regardless of backend
// outcome.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
	DeleteDocument(ctx context.Context, docID string) error
	Clear(ctx context.Context) error
}

// WriteError wraps a backend failure on the write path (upsert, delete,
// clear): auth, network, quota.
type WriteError struct {
	Backend string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s index write: %v", e.Backend, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError wraps a backend failure on the search path.
type ReadError struct {
	Backend string
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s index read: %v", e.Backend, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// IsWrite reports whether err is (or wraps) a WriteError.
func IsWrite(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// New builds the vector index backend selected by the configuration.
// Credentials are resolved here, once; a missing credential is a
// ConfigurationError raised before any network attempt.
func New(ctx context.Context, cfg config.Config) (VectorIndex, error) {
	switch cfg.Index.Backend {
	case config.IndexAstra:
		return NewAstra(cfg.AstraToken, cfg.AstraEndpoint, cfg.Index.Collection)
	case config.IndexPostgres:
		return NewPostgres(ctx, cfg.Index.PostgresDSN, cfg.Embedding.Dimension)
	case config.IndexChromem:
		return NewChromem(cfg.Index.ChromemPath, cfg.Index.Collection)
	case config.IndexMemory:
		return NewMemory(), nil
	default:
		return nil, &config.ConfigurationError{Reason: "unknown index backend: " + cfg.Index.Backend}
	}
}
