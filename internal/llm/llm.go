package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client as a plain text generator.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	retry       RetryPolicy
}

// Option customises a Client.
type Option func(*Client)

// WithRetry replaces the default retry policy.
func WithRetry(p RetryPolicy) Option { return func(c *Client) { c.retry = p } }

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option { return func(c *Client) { c.temperature = t } }

// New creates a new LLM client. timeout bounds a single attempt; zero means none.
func New(baseURL, apiKey, modelName string, timeout time.Duration, opts ...Option) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: 0.7,
		retry:       DefaultRetryPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// GenerateText sends prompt as a single user message and returns the reply
// text. Failed or empty replies are retried per the client's RetryPolicy.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.retry.Do(ctx, func(ctx context.Context) (string, error) {
		return c.complete(ctx, prompt)
	})
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("LLM response", "raw", text)
	if text == "" {
		return "", errors.New("LLM returned an empty response")
	}
	return text, nil
}

// ListModels returns the model IDs served by the endpoint.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
