package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/sihabsafin/pagewise/index"
)

type stubEmbedder struct {
	vector []float32
	err    error
	got    []string
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.got = texts
	if s.err != nil {
		return nil, s.err
	}
	return [][]float32{s.vector}, nil
}

type stubIndex struct {
	index.Memory
	gotVector []float32
	gotK      int
}

func (s *stubIndex) Search(ctx context.Context, vector []float32, k int) ([]index.Match, error) {
	s.gotVector = vector
	s.gotK = k
	return s.Memory.Search(ctx, vector, k)
}

func TestRetrievePassesQuestionVectorAndK(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0, 1}}
	idx := &stubIndex{}
	if err := idx.Upsert(context.Background(), []index.Entry{
		{ID: "1", DocumentID: "d", Filename: "a.pdf", Page: 1, Text: "x", Embedding: []float32{0, 1}},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	r := New(embedder, idx)
	matches, err := r.Retrieve(context.Background(), "where is x?", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	if len(embedder.got) != 1 || embedder.got[0] != "where is x?" {
		t.Fatalf("embedder got %v", embedder.got)
	}
	if idx.gotK != 5 {
		t.Fatalf("expected k=5 passed through, got %d", idx.gotK)
	}
	if len(idx.gotVector) != 2 || idx.gotVector[1] != 1 {
		t.Fatalf("unexpected query vector: %v", idx.gotVector)
	}
	if len(matches) != 1 || matches[0].Text != "x" {
		t.Fatalf("unexpected matches: %v", matches)
	}
}

func TestRetrievePreservesIndexOrder(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	idx := index.NewMemory()
	if err := idx.Upsert(context.Background(), []index.Entry{
		{ID: "1", Text: "far", Embedding: []float32{0, 1}},
		{ID: "2", Text: "near", Embedding: []float32{1, 0}},
		{ID: "3", Text: "mid", Embedding: []float32{0.7, 0.7}},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	r := New(embedder, idx)
	matches, err := r.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	want := []string{"near", "mid", "far"}
	for i, m := range matches {
		if m.Text != want[i] {
			t.Fatalf("rank %d: expected %q, got %q", i, want[i], m.Text)
		}
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("provider down")}
	r := New(embedder, index.NewMemory())

	if _, err := r.Retrieve(context.Background(), "q", 3); err == nil {
		t.Fatal("expected error when embedding fails")
	}
}
