// Package chat owns the conversational query pipeline: a Session holds the
// documents, transcript and conversation memory for one conversation, and
// runs each question through retrieval, prompt composition, streamed
// generation and source attribution.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sihabsafin/pagewise/config"
	"github.com/sihabsafin/pagewise/embeddings"
	"github.com/sihabsafin/pagewise/index"
	"github.com/sihabsafin/pagewise/ingestion"
	"github.com/sihabsafin/pagewise/llm"
	"github.com/sihabsafin/pagewise/prompt"
	"github.com/sihabsafin/pagewise/retrieval"
	"github.com/sihabsafin/pagewise/splitter"
)

const (
	minK = 1
	maxK = 10

	degradedAnswer = "I encountered an error processing your request. Please try again."
)

// Session is the explicit per-conversation state: documents, transcript,
// conversation memory and the vector index handle. Create one at session
// start, destroy it at session end or explicit reset. Sessions may run in
// parallel against the same backend store; the embedder and index are the
// only shared resources.
type Session struct {
	cfg       config.Config
	retriever *retrieval.Retriever
	idx       index.VectorIndex
	generator llm.StreamClient
	ingestor  *ingestion.Service
	memory    *Memory
	documents []ingestion.Document
	messages  []Message
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewSession(cfg config.Config, embedder embeddings.Embedder, idx index.VectorIndex, generator llm.StreamClient, logger zerolog.Logger) *Session {
	split := splitter.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	return &Session{
		cfg:       cfg,
		retriever: retrieval.New(embedder, idx),
		idx:       idx,
		generator: generator,
		ingestor:  ingestion.NewService(embedder, idx, split, logger),
		memory:    NewMemory(),
		timeout:   time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
		logger:    logger,
	}
}

// Ingest indexes new uploads sequentially. Documents already known to the
// session (same name and size) are skipped; a failed document is recorded
// with status failed and does not stop the rest.
func (s *Session) Ingest(ctx context.Context, sources []ingestion.Source) []ingestion.Document {
	fresh := make([]ingestion.Source, 0, len(sources))
	for _, src := range sources {
		if s.findDocument(ingestion.DocumentID(src.Name, src.Size)) == nil {
			fresh = append(fresh, src)
		}
	}

	docs := s.ingestor.IngestAll(ctx, fresh)
	s.documents = append(s.documents, docs...)
	return docs
}

// Ask runs one question through the pipeline. onToken, when non-nil, is
// invoked for every generated token in arrival order so partial output can
// be rendered incrementally. Generation failures and timeouts degrade to a
// displayed answer instead of an error; only invalid input and retrieval
// failures surface as errors, bounded to a short user-readable message.
func (s *Session) Ask(ctx context.Context, q Query, onToken func(token string)) (Answer, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return Answer{}, fmt.Errorf("question cannot be empty")
	}

	k := q.K
	if k == 0 {
		k = s.cfg.Retrieval.K
	}
	if k < minK || k > maxK {
		return Answer{}, fmt.Errorf("k must be between %d and %d, got %d", minK, maxK, k)
	}

	matches, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		s.logger.Error().Err(err).Msg("retrieval failed")
		return Answer{}, boundedError("could not search your documents", err)
	}

	temperature := prompt.Temperature(q.Mode, q.Strict)
	full := prompt.Compose(q.Mode, q.Strict, s.memory.Turns(), matches, question)

	text, degraded := s.generate(ctx, full, temperature, onToken)

	answer := Answer{
		Text:      text,
		Citations: ScoreSources(matches, question),
		Diagnostics: Diagnostics{
			Model:           s.cfg.Generation.Model,
			EmbeddingModel:  s.cfg.Embedding.Model,
			Dimensions:      s.cfg.Embedding.Dimension,
			Metric:          "cosine",
			K:               k,
			Temperature:     temperature,
			Strict:          q.Strict,
			Mode:            q.Mode.String(),
			ChunksRetrieved: len(matches),
			Chunks:          chunkRecords(matches),
		},
		Degraded: degraded,
	}

	s.messages = append(s.messages,
		Message{Role: MessageRoleUser, Content: question},
		Message{
			Role:        MessageRoleAssistant,
			Content:     answer.Text,
			Query:       question,
			Citations:   answer.Citations,
			Diagnostics: &answer.Diagnostics,
		},
	)
	s.memory.Append(question, answer.Text)

	return answer, nil
}

// generate streams tokens under the query timeout. A timeout keeps the
// partial text as the answer; any other mid-stream failure yields a fixed
// apologetic message with a short diagnostic excerpt. Nothing propagates as
// a hard error.
func (s *Session) generate(ctx context.Context, fullPrompt string, temperature float32, onToken func(string)) (string, bool) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var sb strings.Builder
	err := s.generator.GenerateStream(tctx, fullPrompt, temperature, func(token string) error {
		sb.WriteString(token)
		if onToken != nil {
			onToken(token)
		}
		return nil
	})
	if err == nil {
		return strings.TrimSpace(sb.String()), false
	}

	if errors.Is(err, context.DeadlineExceeded) || tctx.Err() != nil && ctx.Err() == nil {
		terr := &llm.TimeoutError{After: s.timeout}
		s.logger.Warn().Err(terr).Msg("generation timed out, keeping partial answer")
		if partial := strings.TrimSpace(sb.String()); partial != "" {
			return partial, true
		}
		return degradedAnswer, true
	}

	s.logger.Error().Err(err).Msg("generation failed, degrading answer")
	return fmt.Sprintf("%s (Error: %s)", degradedAnswer, excerpt(err.Error(), 100)), true
}

// Clear is the idempotent knowledge-base reset. The backend delete may
// fail; the local view (documents, transcript, memory) is emptied
// regardless, and the failure is reported as a warning, never an error.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.idx.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("backend clear failed, resetting local state anyway")
	}
	s.documents = nil
	s.messages = nil
	s.memory.Reset()
	return nil
}

// RemoveDocument deletes one document's passages from the index and forgets
// it locally. Like Clear, the local removal is not contingent on the
// backend.
func (s *Session) RemoveDocument(ctx context.Context, docID string) {
	if err := s.idx.DeleteDocument(ctx, docID); err != nil {
		s.logger.Warn().Err(err).Str("document", docID).Msg("backend delete failed, removing locally anyway")
	}
	kept := s.documents[:0]
	for _, d := range s.documents {
		if d.ID != docID {
			kept = append(kept, d)
		}
	}
	s.documents = kept
}

// Documents returns the session's document records, in upload order.
func (s *Session) Documents() []ingestion.Document {
	out := make([]ingestion.Document, len(s.documents))
	copy(out, s.documents)
	return out
}

// Messages returns the visible transcript, oldest first.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Memory exposes the conversation log for inspection.
func (s *Session) Memory() *Memory { return s.memory }

// EstimatedChunks approximates the searchable chunk count for progress
// display, assuming roughly three chunks per page.
func (s *Session) EstimatedChunks() int {
	total := 0
	for _, d := range s.documents {
		pages := d.Pages
		if pages == 0 {
			pages = 5
		}
		total += pages * 3
	}
	return total
}

func (s *Session) findDocument(id string) *ingestion.Document {
	for i := range s.documents {
		if s.documents[i].ID == id {
			return &s.documents[i]
		}
	}
	return nil
}

func chunkRecords(matches []index.Match) []ChunkRecord {
	records := make([]ChunkRecord, len(matches))
	for i, m := range matches {
		records[i] = ChunkRecord{
			Source: m.Filename,
			Page:   m.Page,
			Text:   m.Text,
			Length: len(m.Text),
		}
	}
	return records
}

func boundedError(prefix string, err error) error {
	return fmt.Errorf("%s: %s", prefix, excerpt(err.Error(), 200))
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
