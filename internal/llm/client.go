// Package llm implements the LM Client component (C1): a single method that
// turns a rendered prompt into a completion, shared by every Errand.
//
// The interface shape is grounded on the teacher's agent.LLMProvider
// contract (internal/agent/provider_types.go); BaseProvider's linear-backoff
// retry (internal/agent/providers/base.go) is adapted for every concrete
// provider below, tuned to loom's single-shot-completion retry semantics
// (see baseProvider in base.go).
package llm

import "context"

// Message is one turn in a chat-style completion request.
type Message struct {
	Role    string
	Content string
}

// Client is the C1 contract: Run renders a single prompt (optionally
// preceded by a system/pre-prompt) and returns the completion text in one
// shot; RunMessages sends a full chat history. Every Errand goes through
// one of these two methods.
//
// Implementations must return an error wrapping ErrUnavailable when the
// underlying transport cannot be reached, so the harness can surface
// spec's LMUnavailable error kind without inspecting provider internals.
type Client interface {
	// Name identifies the provider for logging and ClientProfile routing.
	Name() string

	// Run sends prePrompt as the system message (if non-empty) and prompt
	// as the sole user message, returning the assistant's text reply.
	Run(ctx context.Context, prePrompt, prompt string, cfg CompletionConfig) (string, error)

	// RunMessages sends a full message history and returns the assistant's
	// text reply to the last turn.
	RunMessages(ctx context.Context, messages []Message, cfg CompletionConfig) (string, error)
}

// CompletionConfig carries the per-call configuration options spec.md §4.1
// recognizes, merged over a session's defaults before reaching a Client.
type CompletionConfig struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Seed        int64
	Stream      bool
}

// WithDefaults returns a copy of c with zero-valued fields filled in from
// defaults.
func (c CompletionConfig) WithDefaults(defaults CompletionConfig) CompletionConfig {
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Temperature == 0 {
		c.Temperature = defaults.Temperature
	}
	if c.TopP == 0 {
		c.TopP = defaults.TopP
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.Seed == 0 {
		c.Seed = defaults.Seed
	}
	if !c.Stream {
		c.Stream = defaults.Stream
	}
	return c
}
