// Package ingestion turns uploaded PDFs into indexed, retrievable passages.
package ingestion

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sihabsafin/pagewise/embeddings"
	"github.com/sihabsafin/pagewise/index"
	"github.com/sihabsafin/pagewise/splitter"
)

// Status is a document's place in the ingestion lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusIndexing Status = "indexing"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// Source is an uploaded document: a readable byte stream plus its name and
// size. The core never fetches files itself.
type Source struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Document is the ingestion record for one upload.
type Document struct {
	ID     string
	Name   string
	Size   int64
	Pages  int
	Chunks int
	Status Status
	Error  string
}

// IngestionError marks a single document's failure to parse, chunk, embed or
// store. It never aborts sibling ingestions.
type IngestionError struct {
	Document string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Document, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// DocumentID derives a stable identifier from the file's name and size, so
// re-uploading the identical file yields the same id.
func DocumentID(name string, size int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s%d", name, size)))
	return hex.EncodeToString(sum[:])[:8]
}

// Service runs the write path: extract pages, split, embed, upsert.
type Service struct {
	extractor Extractor
	splitter  *splitter.Splitter
	embedder  embeddings.Embedder
	idx       index.VectorIndex
	logger    zerolog.Logger
}

func NewService(embedder embeddings.Embedder, idx index.VectorIndex, split *splitter.Splitter, logger zerolog.Logger) *Service {
	if split == nil {
		split = splitter.New(splitter.DefaultMaxLen, splitter.DefaultOverlap)
	}
	return &Service{
		extractor: PDFExtractor{},
		splitter:  split,
		embedder:  embedder,
		idx:       idx,
		logger:    logger,
	}
}

// WithExtractor swaps the page extractor. Used for non-PDF payloads and in
// tests.
func (s *Service) WithExtractor(e Extractor) *Service {
	s.extractor = e
	return s
}

// IngestAll processes sources sequentially, one document fully indexed
// before the next begins. A document's failure is recorded on that document
// and the batch continues; no error escapes.
func (s *Service) IngestAll(ctx context.Context, sources []Source) []Document {
	docs := make([]Document, 0, len(sources))
	for _, src := range sources {
		doc := Document{
			ID:     DocumentID(src.Name, src.Size),
			Name:   src.Name,
			Size:   src.Size,
			Status: StatusIndexing,
		}

		if err := s.ingest(ctx, src, &doc); err != nil {
			ierr := &IngestionError{Document: src.Name, Err: err}
			doc.Status = StatusFailed
			doc.Error = truncateError(ierr.Error(), 200)
			s.logger.Error().Err(ierr).Str("document", src.Name).Msg("ingestion failed")
		} else {
			doc.Status = StatusReady
			s.logger.Info().
				Str("document", src.Name).
				Int("pages", doc.Pages).
				Int("chunks", doc.Chunks).
				Msg("document indexed")
		}
		docs = append(docs, doc)
	}
	return docs
}

func (s *Service) ingest(ctx context.Context, src Source, doc *Document) error {
	data, err := io.ReadAll(src.Reader)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	pages, err := s.extractor.Extract(data)
	if err != nil {
		return err
	}
	doc.Pages = len(pages)

	passages := s.splitter.Split(doc.ID, src.Name, pages)
	if len(passages) == 0 {
		s.logger.Warn().Str("document", src.Name).Msg("no text extracted")
		return nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(passages) {
		return fmt.Errorf("embedding count mismatch: have %d passages, %d vectors", len(passages), len(vectors))
	}

	entries := make([]index.Entry, len(passages))
	for i, p := range passages {
		entries[i] = index.Entry{
			ID:         uuid.NewString(),
			DocumentID: p.DocumentID,
			Filename:   p.Filename,
			Page:       p.Page,
			Text:       p.Text,
			Embedding:  vectors[i],
		}
	}

	if err := s.idx.Upsert(ctx, entries); err != nil {
		return err
	}
	doc.Chunks = len(entries)
	return nil
}

func truncateError(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	return msg[:n]
}
