package index

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

// Chromem is an embedded, file-backed index for local and offline use.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

func NewChromem(path, collection string) (*Chromem, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, &WriteError{Backend: "chromem", Err: fmt.Errorf("open database: %w", err)}
		}
	}

	c, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, &WriteError{Backend: "chromem", Err: fmt.Errorf("create collection: %w", err)}
	}

	return &Chromem{db: db, collection: c, name: collection}, nil
}

func (c *Chromem) Upsert(ctx context.Context, entries []Entry) error {
	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, chromem.Document{
			ID:      e.ID,
			Content: e.Text,
			Metadata: map[string]string{
				"doc_id":      e.DocumentID,
				"source_file": e.Filename,
				"page":        strconv.Itoa(e.Page),
			},
			Embedding: e.Embedding,
		})
	}

	if err := c.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return &WriteError{Backend: "chromem", Err: fmt.Errorf("add documents: %w", err)}
	}
	return nil
}

func (c *Chromem) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	// chromem rejects nResults above the collection size.
	if count := c.collection.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := c.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, &ReadError{Backend: "chromem", Err: fmt.Errorf("query embedding: %w", err)}
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page"])
		matches = append(matches, Match{
			DocumentID: r.Metadata["doc_id"],
			Filename:   r.Metadata["source_file"],
			Page:       page,
			Text:       r.Content,
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

func (c *Chromem) DeleteDocument(ctx context.Context, docID string) error {
	if err := c.collection.Delete(ctx, map[string]string{"doc_id": docID}, nil); err != nil {
		return &WriteError{Backend: "chromem", Err: fmt.Errorf("delete document: %w", err)}
	}
	return nil
}

func (c *Chromem) Clear(ctx context.Context) error {
	if err := c.db.DeleteCollection(c.name); err != nil {
		return &WriteError{Backend: "chromem", Err: fmt.Errorf("drop collection: %w", err)}
	}
	col, err := c.db.GetOrCreateCollection(c.name, nil, nil)
	if err != nil {
		return &WriteError{Backend: "chromem", Err: fmt.Errorf("recreate collection: %w", err)}
	}
	c.collection = col
	return nil
}

var _ VectorIndex = (*Chromem)(nil)
