package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompleter sends the prompt as a single user message to an OpenAI-compatible
// chat completions endpoint (OpenAI, Gemini's OpenAI endpoint, Ollama, vLLM).
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// OpenAIOptions configures an OpenAICompleter.
type OpenAIOptions struct {
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewOpenAICompleter creates a chat completion client. An empty endpoint means api.openai.com.
func NewOpenAICompleter(opts OpenAIOptions) (*OpenAICompleter, error) {
	if opts.Model == "" {
		return nil, errors.New("generation model is required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.Endpoint != "" {
		cfg.BaseURL = strings.TrimRight(opts.Endpoint, "/")
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}, nil
}

// Complete returns the content of the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
