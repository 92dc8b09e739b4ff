// Package llm streams answer tokens from a language model given a fully
// composed prompt.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sihabsafin/pagewise/config"
)

// Conversation roles as recorded in conversation memory.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Message is one conversation turn.
type Message struct {
	Role    string
	Content string
}

// Client produces a complete response in one call.
type Client interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// StreamClient produces tokens incrementally: fn is invoked once per token
// in generation order, and the stream is finite and not restartable. A
// non-nil error from fn aborts the stream.
type StreamClient interface {
	Client
	GenerateStream(ctx context.Context, prompt string, temperature float32, fn func(token string) error) error
}

// GenerationError wraps a failed or malformed model call.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// TimeoutError reports that a query exceeded its configured duration. Any
// partial text accumulated by the caller remains valid.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s", e.After)
}

// NewClient builds the generation client selected by the configuration.
func NewClient(cfg config.Config) (StreamClient, error) {
	switch cfg.Generation.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		if cfg.GroqAPIKey == "" {
			return nil, &config.ConfigurationError{Missing: []string{config.EnvGroqAPIKey}}
		}
		return NewGroqClient(cfg.GroqAPIKey, cfg.Generation.BaseURL, cfg.Generation.Model), nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.Generation.Model), nil
	default:
		return nil, &config.ConfigurationError{Reason: "unknown generation provider: " + cfg.Generation.Provider}
	}
}
