// Package api exposes the document question-answering workflows over HTTP:
// uploading PDFs, asking questions (optionally streamed), listing and
// removing documents, and clearing the knowledge base.
package api

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sihabsafin/pagewise/chat"
	"github.com/sihabsafin/pagewise/config"
	"github.com/sihabsafin/pagewise/ingestion"
	"github.com/sihabsafin/pagewise/prompt"
)

const maxUploadBytes = 64 << 20

// Server wraps a single chat session behind HTTP handlers. The session is
// not safe for concurrent use, so every handler that touches it holds the
// server mutex.
type Server struct {
	cfg     config.Config
	session *chat.Session
	mu      sync.Mutex
	logger  zerolog.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

type queryRequest struct {
	Question string `json:"question"`
	K        int    `json:"k"`
	Strict   bool   `json:"strict"`
	Mode     string `json:"mode"`
	Stream   bool   `json:"stream"`
}

type queryResponse struct {
	Answer      string             `json:"answer"`
	Degraded    bool               `json:"degraded,omitempty"`
	Citations   []citationPayload  `json:"citations"`
	Diagnostics diagnosticsPayload `json:"diagnostics"`
}

type citationPayload struct {
	Filename string  `json:"filename"`
	Page     int     `json:"page"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

type diagnosticsPayload struct {
	Model           string  `json:"model"`
	EmbeddingModel  string  `json:"embeddingModel"`
	Dimensions      int     `json:"dimensions"`
	Metric          string  `json:"metric"`
	K               int     `json:"k"`
	Temperature     float32 `json:"temperature"`
	Strict          bool    `json:"strict"`
	Mode            string  `json:"mode"`
	ChunksRetrieved int     `json:"chunksRetrieved"`
}

type documentPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Pages  int    `json:"pages"`
	Chunks int    `json:"chunks"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type documentsResponse struct {
	Documents       []documentPayload `json:"documents"`
	EstimatedChunks int               `json:"estimatedChunks"`
}

// New constructs a Server around an already-wired session.
func New(cfg config.Config, session *chat.Session, logger zerolog.Logger) *Server {
	s := &Server{cfg: cfg, session: session, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/documents", s.handleDocuments)
	mux.HandleFunc("/v1/documents/", s.handleDocumentByID)
	mux.HandleFunc("/v1/query", s.handleQuery)
	mux.HandleFunc("/v1/clear", s.handleClear)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDocuments(w)
	case http.MethodPost:
		s.uploadDocuments(w, r)
	default:
		s.methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listDocuments(w http.ResponseWriter) {
	s.mu.Lock()
	docs := s.session.Documents()
	estimated := s.session.EstimatedChunks()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, documentsResponse{
		Documents:       transformDocuments(docs),
		EstimatedChunks: estimated,
	})
}

func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("no files uploaded, use multipart field %q", "files"))
		return
	}

	var sources []ingestion.Source
	var open []interface{ Close() error }
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("open upload %s: %w", header.Filename, err))
			break
		}
		open = append(open, f)
		sources = append(sources, ingestion.Source{
			Name:   header.Filename,
			Size:   header.Size,
			Reader: f,
		})
	}
	defer func() {
		for _, f := range open {
			_ = f.Close()
		}
	}()
	if len(sources) != len(r.MultipartForm.File["files"]) {
		return
	}

	s.mu.Lock()
	docs := s.session.Ingest(r.Context(), sources)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, documentsResponse{Documents: transformDocuments(docs)})
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.methodNotAllowed(w, http.MethodDelete)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("document id is required"))
		return
	}

	s.mu.Lock()
	s.session.RemoveDocument(r.Context(), id)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "document removed"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	mode := prompt.ModeFactual
	if req.Mode != "" {
		parsed, err := prompt.ParseMode(req.Mode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		mode = parsed
	}

	query := chat.Query{
		Question: req.Question,
		K:        req.K,
		Strict:   req.Strict,
		Mode:     mode,
	}

	if req.Stream {
		s.streamQuery(w, r, query)
		return
	}

	s.mu.Lock()
	answer, err := s.session.Ask(r.Context(), query, nil)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusOK, transformAnswer(answer))
}

// streamQuery writes tokens to the response as they arrive. Citations and
// diagnostics are not included in a streamed response; clients fetch them
// from the transcript or re-ask without streaming.
func (s *Server) streamQuery(w http.ResponseWriter, r *http.Request, query chat.Query) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	s.mu.Lock()
	_, err := s.session.Ask(r.Context(), query, func(token string) {
		_, _ = fmt.Fprint(w, token)
		flusher.Flush()
	})
	s.mu.Unlock()
	if err != nil {
		// Headers are already sent; the error goes into the body.
		_, _ = fmt.Fprintf(w, "\nerror: %v\n", err)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req clearRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if !req.Confirm {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("confirm must be true to clear data"))
		return
	}

	s.mu.Lock()
	_ = s.session.Clear(r.Context())
	s.mu.Unlock()

	s.logger.Info().Msg("knowledge base cleared")
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "knowledge base cleared"})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonEncode(w, payload); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error().Int("status", status).Err(err).Msg("api error")
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func transformAnswer(answer chat.Answer) queryResponse {
	citations := make([]citationPayload, len(answer.Citations))
	for i, c := range answer.Citations {
		citations[i] = citationPayload{
			Filename: c.Filename,
			Page:     c.Page,
			Score:    c.Score,
			Snippet:  c.Snippet,
		}
	}
	d := answer.Diagnostics
	return queryResponse{
		Answer:    answer.Text,
		Degraded:  answer.Degraded,
		Citations: citations,
		Diagnostics: diagnosticsPayload{
			Model:           d.Model,
			EmbeddingModel:  d.EmbeddingModel,
			Dimensions:      d.Dimensions,
			Metric:          d.Metric,
			K:               d.K,
			Temperature:     d.Temperature,
			Strict:          d.Strict,
			Mode:            d.Mode,
			ChunksRetrieved: d.ChunksRetrieved,
		},
	}
}

func transformDocuments(docs []ingestion.Document) []documentPayload {
	out := make([]documentPayload, len(docs))
	for i, d := range docs {
		out[i] = documentPayload{
			ID:     d.ID,
			Name:   d.Name,
			Size:   d.Size,
			Pages:  d.Pages,
			Chunks: d.Chunks,
			Status: string(d.Status),
			Error:  d.Error,
		}
	}
	return out
}
