package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicClient classifies using the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates an Anthropic-backed classifier client.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Classify picks the best candidate target for the text.
func (c *AnthropicClient) Classify(ctx context.Context, text string, candidates []Candidate) (*Classification, error) {
	raw, err := c.complete(ctx, classifyPrompt(text, candidates))
	if err != nil {
		return nil, err
	}
	return parseClassification(raw)
}

// SuggestName proposes a short project name for the text.
func (c *AnthropicClient) SuggestName(ctx context.Context, text string) (string, error) {
	raw, err := c.complete(ctx, fmt.Sprintf(suggestNamePrompt, truncate(text, 300)))
	if err != nil {
		return "", err
	}
	return cleanName(raw), nil
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in anthropic response")
}
