package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// groqClient drives Groq's OpenAI-compatible chat completions endpoint. Any
// OpenAI-compatible base URL works.
type groqClient struct {
	client *openai.Client
	model  string
}

func NewGroqClient(apiKey, baseURL, model string) StreamClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &groqClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *groqClient) request(prompt string, temperature float32) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
}

func (c *groqClient) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt, temperature))
	if err != nil {
		return "", &GenerationError{Provider: "groq", Err: fmt.Errorf("create chat completion: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return "", &GenerationError{Provider: "groq", Err: fmt.Errorf("chat completion returned no choices")}
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *groqClient) GenerateStream(ctx context.Context, prompt string, temperature float32, fn func(string) error) error {
	req := c.request(prompt, temperature)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return &GenerationError{Provider: "groq", Err: fmt.Errorf("open chat stream: %w", err)}
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &GenerationError{Provider: "groq", Err: fmt.Errorf("receive chat stream: %w", err)}
		}

		if len(resp.Choices) == 0 {
			continue
		}
		if token := resp.Choices[0].Delta.Content; token != "" {
			if err := fn(token); err != nil {
				return err
			}
		}
	}
}

var _ StreamClient = (*groqClient)(nil)
