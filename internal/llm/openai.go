package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client against the Chat Completions API.
// Grounded on the teacher's agent/providers.OpenAIProvider, simplified to a
// single non-streaming call per errand invocation.
type OpenAIClient struct {
	base         baseProvider
	client       *openai.Client
	defaultModel string
}

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
}

// NewOpenAIClient constructs an OpenAIClient. APIKey is required.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: openai API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o"
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		base:         newBaseProvider("openai", cfg.MaxRetries, cfg.RetryDelay),
		client:       openai.NewClientWithConfig(config),
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (c *OpenAIClient) Name() string { return c.base.name }

func (c *OpenAIClient) Run(ctx context.Context, prePrompt, prompt string, cfg CompletionConfig) (string, error) {
	var messages []Message
	if prePrompt != "" {
		messages = append(messages, Message{Role: "system", Content: prePrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})
	return c.RunMessages(ctx, messages, cfg)
}

func (c *OpenAIClient) RunMessages(ctx context.Context, messages []Message, cfg CompletionConfig) (string, error) {
	model := cfg.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		// The original reference implementation rewrites a synthetic
		// "ipython" role to "function" for non-Anthropic backends; loom's
		// Errand messages never use "ipython", but the rewrite is kept for
		// parity with classifier output that may still emit it.
		if role == "ipython" {
			role = "function"
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		MaxTokens:   maxTokens,
		Temperature: float32(cfg.Temperature),
	}
	if cfg.Seed != 0 {
		seed := int(cfg.Seed)
		req.Seed = &seed
	}

	var reply string
	err := c.base.retry(ctx, IsRetryable, func() error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("llm: openai returned no choices")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm: openai completion: %w", err)
	}
	return reply, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &RetryableError{Err: err}
		}
		return err
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
