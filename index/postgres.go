package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Postgres stores passages in a pgvector table with cosine-distance search.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string, dimension int) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx, dimension); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS pagewise_passages (
			id UUID PRIMARY KEY,
			doc_id TEXT NOT NULL,
			source_file TEXT NOT NULL,
			page INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_pagewise_passages_doc ON pagewise_passages(doc_id)",
		"CREATE INDEX IF NOT EXISTS idx_pagewise_passages_embedding ON pagewise_passages USING ivfflat (embedding vector_cosine_ops)",
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return &WriteError{Backend: "postgres", Err: fmt.Errorf("execute schema statement: %w", err)}
		}
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := p.pool.Exec(ctx, `
			INSERT INTO pagewise_passages (id, doc_id, source_file, page, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
		`, id, e.DocumentID, e.Filename, e.Page, e.Text, pgvector.NewVector(e.Embedding)); err != nil {
			return &WriteError{Backend: "postgres", Err: fmt.Errorf("insert passage: %w", err)}
		}
	}
	return nil
}

func (p *Postgres) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT doc_id, source_file, page, content,
		       1 - (embedding <=> $1::vector) AS similarity
		FROM pagewise_passages
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, &ReadError{Backend: "postgres", Err: fmt.Errorf("query passages: %w", err)}
	}
	defer rows.Close()

	matches := make([]Match, 0, k)
	for rows.Next() {
		var m Match
		var similarity float64
		if err := rows.Scan(&m.DocumentID, &m.Filename, &m.Page, &m.Text, &similarity); err != nil {
			return nil, &ReadError{Backend: "postgres", Err: fmt.Errorf("scan passage: %w", err)}
		}
		m.Similarity = float32(similarity)
		matches = append(matches, m)
	}
	if rows.Err() != nil {
		return nil, &ReadError{Backend: "postgres", Err: rows.Err()}
	}
	return matches, nil
}

func (p *Postgres) DeleteDocument(ctx context.Context, docID string) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM pagewise_passages WHERE doc_id = $1", docID); err != nil {
		return &WriteError{Backend: "postgres", Err: fmt.Errorf("delete document: %w", err)}
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "TRUNCATE pagewise_passages"); err != nil {
		return &WriteError{Backend: "postgres", Err: fmt.Errorf("truncate passages: %w", err)}
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

var _ VectorIndex = (*Postgres)(nil)
