package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sihabsafin/pagewise/chat"
	"github.com/sihabsafin/pagewise/config"
	"github.com/sihabsafin/pagewise/index"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type stubStream struct {
	tokens []string
}

func (s *stubStream) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	return strings.Join(s.tokens, ""), nil
}

func (s *stubStream) GenerateStream(_ context.Context, _ string, _ float32, fn func(string) error) error {
	for _, token := range s.tokens {
		if err := fn(token); err != nil {
			return err
		}
	}
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Index.Backend = config.IndexMemory

	idx := index.NewMemory()
	err := idx.Upsert(context.Background(), []index.Entry{
		{ID: "1", DocumentID: "doc1", Filename: "a.pdf", Page: 2, Text: "alpha beta gamma", Embedding: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	session := chat.NewSession(cfg, stubEmbedder{}, idx, &stubStream{tokens: []string{"An ", "answer."}}, zerolog.Nop())
	return New(cfg, session, zerolog.Nop())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestQueryReturnsAnswerWithCitations(t *testing.T) {
	srv := newTestServer(t)

	body := strings.NewReader(`{"question":"what is alpha?","k":3,"mode":"factual"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "An answer." {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].Filename != "a.pdf" || resp.Citations[0].Page != 2 {
		t.Fatalf("unexpected citations: %+v", resp.Citations)
	}
	if resp.Diagnostics.K != 3 || resp.Diagnostics.Mode != "factual" || resp.Diagnostics.Metric != "cosine" {
		t.Fatalf("unexpected diagnostics: %+v", resp.Diagnostics)
	}
}

func TestQueryValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []string{
		`{"question":"  "}`,
		`{"question":"q","mode":"poetic"}`,
		`{"question":"q","k":11}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestQueryStreamWritesTokens(t *testing.T) {
	srv := newTestServer(t)

	body := strings.NewReader(`{"question":"what is alpha?","stream":true}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "An answer." {
		t.Fatalf("unexpected streamed body: %q", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/query", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected Allow header, got %q", rec.Header().Get("Allow"))
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/clear", strings.NewReader(`{"confirm":false}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirmation, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/clear", strings.NewReader(`{"confirm":true}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with confirmation, got %d", rec.Code)
	}
}

func TestListDocumentsEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp documentsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Documents) != 0 {
		t.Fatalf("expected no documents, got %d", len(resp.Documents))
	}
}

func TestDeleteDocument(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/documents/doc1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/documents/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing id, got %d", rec.Code)
	}
}
