package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client against Anthropic's Messages API.
// Grounded on the teacher's agent/providers.AnthropicProvider: same config
// shape, same retry-with-backoff discipline, simplified to a single
// non-streaming completion since the harness only ever needs the finished
// text of an errand response.
type AnthropicClient struct {
	base         baseProvider
	client       anthropic.Client
	defaultModel string
}

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
}

// NewAnthropicClient constructs an AnthropicClient. APIKey is required.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: anthropic API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		base:         newBaseProvider("anthropic", cfg.MaxRetries, cfg.RetryDelay),
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (c *AnthropicClient) Name() string { return c.base.name }

func (c *AnthropicClient) Run(ctx context.Context, prePrompt, prompt string, cfg CompletionConfig) (string, error) {
	var messages []Message
	if prePrompt != "" {
		messages = append(messages, Message{Role: "system", Content: prePrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})
	return c.RunMessages(ctx, messages, cfg)
}

func (c *AnthropicClient) RunMessages(ctx context.Context, messages []Message, cfg CompletionConfig) (string, error) {
	model := cfg.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}

	for _, m := range messages {
		role := m.Role
		// The original reference implementation rewrites a synthetic
		// "ipython" role to "function" for non-Anthropic backends; loom's
		// Errand messages never use "ipython", but the rewrite is kept here
		// too for parity with classifier output that may still emit it.
		if role == "ipython" {
			role = "function"
		}
		switch role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	var reply string
	err := c.base.retry(ctx, IsRetryable, func() error {
		resp, err := c.client.Messages.New(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return classifyAnthropicError(err)
		}
		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		reply = sb.String()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm: anthropic completion: %w", err)
	}
	return reply, nil
}

// classifyAnthropicError wraps transport-level failures as ErrUnavailable
// and rate-limit/server errors as RetryableError, so baseProvider.retry and
// the harness's error taxonomy can react without importing the SDK's error
// types directly.
func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return &RetryableError{Err: err}
		}
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
