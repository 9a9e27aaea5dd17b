// Package llm wraps OpenAI-compatible chat-completion endpoints (DeepSeek,
// OpenAI, Qwen) behind a small Complete/CompleteJSON API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrNoAPIKey is returned when a client is requested without credentials.
	ErrNoAPIKey = errors.New("llm: api key is required")

	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Provider describes one OpenAI-compatible endpoint.
type Provider struct {
	Name         string
	BaseURL      string
	DefaultModel string
}

// Providers lists the supported endpoints by name.
var Providers = map[string]Provider{
	"deepseek": {Name: "deepseek", BaseURL: "https://api.deepseek.com/v1", DefaultModel: "deepseek-chat"},
	"openai":   {Name: "openai", BaseURL: "https://api.openai.com/v1", DefaultModel: "gpt-4o-mini"},
	"qwen":     {Name: "qwen", BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", DefaultModel: "qwen-plus"},
}

// Config selects a provider and credentials.
type Config struct {
	Provider string
	Model    string // empty uses the provider default
	BaseURL  string // empty uses the provider default
	APIKey   string
}

// generator is the subset of llms.Model the client needs.
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client sends prompts to one provider.
type Client struct {
	provider string
	model    string
	gen      generator
}

// New creates a client for cfg.
func New(cfg Config) (*Client, error) {
	p, ok := Providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: create %s client: %w", p.Name, err)
	}
	return &Client{provider: p.Name, model: cfg.Model, gen: model}, nil
}

// Provider returns the provider name.
func (c *Client) Provider() string {
	return c.provider
}

// Model returns the model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a system and user prompt and returns the reply text.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	var msgs []llms.MessageContent
	if system != "" {
		msgs = append(msgs, textMessage(llms.ChatMessageTypeSystem, system))
	}
	msgs = append(msgs, textMessage(llms.ChatMessageTypeHuman, prompt))

	resp, err := c.gen.GenerateContent(ctx, msgs, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("llm: %s completion: %w", c.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// CompleteJSON is Complete followed by ExtractJSON into v.
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string, v any) error {
	text, err := c.Complete(ctx, system, prompt)
	if err != nil {
		return err
	}
	return ExtractJSON(text, v)
}

func textMessage(role llms.ChatMessageType, text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  role,
		Parts: []llms.ContentPart{llms.TextContent{Text: text}},
	}
}
