package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = goopenai.GPT3Dot5Turbo

// ErrNoChoices is returned when the completion carries no choices.
var ErrNoChoices = errors.New("openai returned no choices")

// Client generates text through the chat completions API.
type Client struct {
	client *goopenai.Client
	model  string
}

// NewClient builds a client. baseURL may be empty to use the public endpoint.
func NewClient(apiKey, model, baseURL string) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{client: goopenai.NewClientWithConfig(cfg), model: model}
}

// Generate sends prompt as a single user message.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai api call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
