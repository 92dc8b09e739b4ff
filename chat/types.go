package chat

import "github.com/sihabsafin/pagewise/prompt"

// Query is one question against the knowledge base. K must be in [1,10];
// zero means the configured default.
type Query struct {
	Question string
	K        int
	Strict   bool
	Mode     prompt.Mode
}

// Citation points a reader at the passage an answer drew from. Score is the
// lexical-overlap display score, NOT the vector similarity used for ranking.
type Citation struct {
	Filename string
	Page     int
	Score    float64
	Snippet  string
}

// ChunkRecord is the full text of one retrieved chunk, kept for inspection.
type ChunkRecord struct {
	Source string
	Page   int
	Text   string
	Length int
}

// Diagnostics is the per-query pipeline state exposed for audit: which
// models ran, how retrieval was configured, and exactly what was retrieved.
type Diagnostics struct {
	Model           string
	EmbeddingModel  string
	Dimensions      int
	Metric          string
	K               int
	Temperature     float32
	Strict          bool
	Mode            string
	ChunksRetrieved int
	Chunks          []ChunkRecord
}

// Answer is the assistant's reply with its citations and diagnostics.
// Degraded marks a reply assembled from partial or failure text.
type Answer struct {
	Text        string
	Citations   []Citation
	Diagnostics Diagnostics
	Degraded    bool
}

// Message is one turn of the visible transcript. Messages are append-only
// and cleared only in bulk on knowledge-base reset.
type Message struct {
	Role        string
	Content     string
	Query       string
	Citations   []Citation
	Diagnostics *Diagnostics
}

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)
