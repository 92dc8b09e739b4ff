// Package retrieval answers "which passages are nearest to this question".
package retrieval

import (
	"context"
	"fmt"

	"github.com/sihabsafin/pagewise/embeddings"
	"github.com/sihabsafin/pagewise/index"
)

// Retriever embeds a question with the same provider used at indexing time
// and returns the index's top-k matches in the index's ranked order. It does
// no re-ranking and does not clamp k; bounds are the caller's contract.
type Retriever struct {
	embedder embeddings.Embedder
	idx      index.VectorIndex
}

func New(embedder embeddings.Embedder, idx index.VectorIndex) *Retriever {
	return &Retriever{embedder: embedder, idx: idx}
}

func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]index.Match, error) {
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	matches, err := r.idx.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return matches, nil
}
