package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func NewOllamaClient(host, model string) StreamClient {
	host = strings.TrimRight(host, "/")
	if host == "" {
		host = "http://localhost:11434"
	}

	return &ollamaClient{
		host:  host,
		model: model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *ollamaClient) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.call(ctx, prompt, temperature, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &GenerationError{Provider: "ollama", Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != "" {
		return "", &GenerationError{Provider: "ollama", Err: fmt.Errorf("%s", parsed.Error)}
	}
	return parsed.Response, nil
}

func (c *ollamaClient) GenerateStream(ctx context.Context, prompt string, temperature float32, fn func(string) error) error {
	resp, err := c.call(ctx, prompt, temperature, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	for {
		var chunk ollamaGenerateResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &GenerationError{Provider: "ollama", Err: fmt.Errorf("decode stream response: %w", err)}
		}

		if chunk.Error != "" {
			return &GenerationError{Provider: "ollama", Err: fmt.Errorf("%s", chunk.Error)}
		}

		if chunk.Response != "" {
			if err := fn(chunk.Response); err != nil {
				return err
			}
		}

		if chunk.Done {
			return nil
		}
	}
}

func (c *ollamaClient) call(ctx context.Context, prompt string, temperature float32, stream bool) (*http.Response, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  stream,
		Options: ollamaOptions{Temperature: temperature},
	})
	if err != nil {
		return nil, &GenerationError{Provider: "ollama", Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &GenerationError{Provider: "ollama", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &GenerationError{Provider: "ollama", Err: fmt.Errorf("call generate API: %w", err)}
	}

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr == nil && len(data) > 0 {
			return nil, &GenerationError{Provider: "ollama", Err: fmt.Errorf("generate API error: %s", data)}
		}
		return nil, &GenerationError{Provider: "ollama", Err: fmt.Errorf("generate API returned status %s", resp.Status)}
	}

	return resp, nil
}

var _ StreamClient = (*ollamaClient)(nil)
