package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

type anthropicClient struct {
	model  string
	client anthropic.Client
}

func newAnthropicFromEnv(cfg Config) (*anthropicClient, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("ANTHROPIC_MODEL"); env != "" {
			model = env
		} else {
			model = defaultAnthropicModel
		}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(pickHTTPClient(cfg.HTTPClient)),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return newAnthropicClient(model, opts...), nil
}

func newAnthropicClient(model string, opts ...option.RequestOption) *anthropicClient {
	return &anthropicClient{
		model:  model,
		client: anthropic.NewClient(opts...),
	}
}

func (c *anthropicClient) Name() string {
	return fmt.Sprintf("Anthropic (%s)", c.model)
}

func (c *anthropicClient) AnalyzeRhyme(ctx context.Context, lyrics string) (RhymeAnalysis, error) {
	return analyzeRhyme(ctx, c.message, lyrics)
}

func (c *anthropicClient) QuickAction(ctx context.Context, action Action, selected, full string) (string, error) {
	return quickAction(ctx, c.message, action, selected, full)
}

func (c *anthropicClient) message(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: "You are a concise songwriting assistant."},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("anthropic returned an empty response")
	}
	return out, nil
}
