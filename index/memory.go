package index

import (
	"context"
	"sort"
	"sync"
)

// Memory is a brute-force in-process index. Vectors are assumed
// unit-normalized, so similarity is a plain dot product.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Upsert(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *Memory) Search(_ context.Context, vector []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		entry Entry
		sim   float32
	}

	results := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		results = append(results, scored{entry: e, sim: dot(e.Embedding, vector)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].sim > results[j].sim
	})

	if k > len(results) {
		k = len(results)
	}
	matches := make([]Match, 0, k)
	for _, r := range results[:k] {
		matches = append(matches, Match{
			DocumentID: r.entry.DocumentID,
			Filename:   r.entry.Filename,
			Page:       r.entry.Page,
			Text:       r.entry.Text,
			Similarity: r.sim,
		})
	}
	return matches, nil
}

func (m *Memory) DeleteDocument(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.DocumentID != docID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

var _ VectorIndex = (*Memory)(nil)
