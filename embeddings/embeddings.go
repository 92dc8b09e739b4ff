// Package embeddings maps text to fixed-dimension vectors for cosine
// comparison. Vectors are unit-normalized so cosine similarity reduces to a
// dot product; the same provider must embed both passages and queries.
package embeddings

import (
	"context"
	"math"
	"sync"

	"github.com/sihabsafin/pagewise/config"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the embedder selected by the configuration.
func New(cfg config.Config) (Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOllama:
		return NewOllamaEmbedder(cfg.OllamaHost, cfg.Embedding.Model, cfg.Embedding.Dimension), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, &config.ConfigurationError{Missing: []string{"OPENAI_API_KEY"}}
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimension), nil
	default:
		return nil, &config.ConfigurationError{Reason: "unknown embedding provider: " + cfg.Embedding.Provider}
	}
}

var (
	defaultOnce     sync.Once
	defaultEmbedder Embedder
	defaultErr      error
)

// Default returns the process-wide embedder, constructing it on first use.
// Construction is expensive for local backends (model load), so it happens
// at most once per process and is never reinitialized.
func Default(cfg config.Config) (Embedder, error) {
	defaultOnce.Do(func() {
		defaultEmbedder, defaultErr = New(cfg)
	})
	return defaultEmbedder, defaultErr
}

// Normalize scales v to unit L2 norm in place and returns it. Zero vectors
// are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
