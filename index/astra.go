package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sihabsafin/pagewise/config"
)

const astraBatchSize = 20

// Astra is a JSON-over-HTTP client for the Astra DB Data API. The token and
// endpoint are resolved once at construction and cached for the lifetime of
// the client.
type Astra struct {
	url    string
	token  string
	client *http.Client
}

// NewAstra validates credentials without touching the network.
func NewAstra(token, endpoint, collection string) (*Astra, error) {
	var missing []string
	if token == "" {
		missing = append(missing, config.EnvAstraToken)
	}
	if endpoint == "" {
		missing = append(missing, config.EnvAstraEndpoint)
	}
	if len(missing) > 0 {
		return nil, &config.ConfigurationError{Missing: missing}
	}

	return &Astra{
		url:   fmt.Sprintf("%s/api/json/v1/default_keyspace/%s", strings.TrimRight(endpoint, "/"), collection),
		token: token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type astraDocument struct {
	ID       string            `json:"_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Vector   []float32         `json:"$vector,omitempty"`
}

type astraResponse struct {
	Status struct {
		InsertedIDs  []string `json:"insertedIds"`
		DeletedCount int      `json:"deletedCount"`
		MoreData     bool     `json:"moreData"`
	} `json:"status"`
	Data struct {
		Documents []struct {
			ID         string            `json:"_id"`
			Content    string            `json:"content"`
			Metadata   map[string]string `json:"metadata"`
			Similarity float32           `json:"$similarity"`
		} `json:"documents"`
	} `json:"data"`
	Errors []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	} `json:"errors"`
}

func (a *Astra) Upsert(ctx context.Context, entries []Entry) error {
	for start := 0; start < len(entries); start += astraBatchSize {
		end := start + astraBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		docs := make([]astraDocument, 0, end-start)
		for _, e := range entries[start:end] {
			docs = append(docs, astraDocument{
				ID:      e.ID,
				Content: e.Text,
				Metadata: map[string]string{
					"doc_id":      e.DocumentID,
					"source_file": e.Filename,
					"page":        fmt.Sprintf("%d", e.Page),
				},
				Vector: e.Embedding,
			})
		}

		cmd := map[string]any{
			"insertMany": map[string]any{"documents": docs},
		}
		if _, err := a.command(ctx, cmd); err != nil {
			return &WriteError{Backend: "astra", Err: err}
		}
	}
	return nil
}

func (a *Astra) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	cmd := map[string]any{
		"find": map[string]any{
			"sort": map[string]any{"$vector": vector},
			"options": map[string]any{
				"limit":             k,
				"includeSimilarity": true,
			},
			"projection": map[string]any{"$vector": 0},
		},
	}

	resp, err := a.command(ctx, cmd)
	if err != nil {
		return nil, &ReadError{Backend: "astra", Err: err}
	}

	matches := make([]Match, 0, len(resp.Data.Documents))
	for _, doc := range resp.Data.Documents {
		matches = append(matches, Match{
			DocumentID: doc.Metadata["doc_id"],
			Filename:   doc.Metadata["source_file"],
			Page:       atoiSafe(doc.Metadata["page"]),
			Text:       doc.Content,
			Similarity: doc.Similarity,
		})
	}
	return matches, nil
}

func (a *Astra) DeleteDocument(ctx context.Context, docID string) error {
	return a.deleteMany(ctx, map[string]any{"metadata.doc_id": docID})
}

func (a *Astra) Clear(ctx context.Context) error {
	return a.deleteMany(ctx, map[string]any{})
}

// deleteMany loops because the Data API deletes in pages and signals
// remaining rows with status.moreData.
func (a *Astra) deleteMany(ctx context.Context, filter map[string]any) error {
	for {
		cmd := map[string]any{
			"deleteMany": map[string]any{"filter": filter},
		}
		resp, err := a.command(ctx, cmd)
		if err != nil {
			return &WriteError{Backend: "astra", Err: err}
		}
		if !resp.Status.MoreData {
			return nil
		}
	}
}

func (a *Astra) command(ctx context.Context, cmd map[string]any) (*astraResponse, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("data API returned %s: %s", resp.Status, truncate(string(data), 200))
	}

	var parsed astraResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("data API error %s: %s", parsed.Errors[0].ErrorCode, parsed.Errors[0].Message)
	}
	return &parsed, nil
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ VectorIndex = (*Astra)(nil)
