package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 1024
	requestTimeout = 30 * time.Second

	systemPrompt = "You are a sustainability assistant. Give short, practical advice for reducing carbon emissions."
)

// ErrEmptyResponse is returned when the API answers without any text block.
var ErrEmptyResponse = errors.New("empty response from ai")

// Client generates text with the Anthropic Messages API.
type Client struct {
	httpClient *resty.Client
	model      string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, mostly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.httpClient.SetBaseURL(strings.TrimRight(url, "/")) }
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(requestTimeout)

	c := &Client{httpClient: client, model: defaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient exposes the underlying resty client.
func (c *Client) HTTPClient() *resty.Client {
	return c.httpClient
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends prompt as a single user turn and returns the joined text blocks.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []Message{{Role: "user", Content: prompt}},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post("/v1/messages")

	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: status %d: %s", resp.StatusCode(), resp.String())
	}

	var parts []string
	for _, block := range respBody.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
