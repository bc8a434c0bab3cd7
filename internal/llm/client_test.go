package llm

import (
	"context"
	"errors"
	"testing"
)

func TestFakeClientRunUsesKeyedReply(t *testing.T) {
	c := &FakeClient{
		Replies: map[string]string{"2+2?": "4"},
		Default: "unknown",
	}
	got, err := c.Run(context.Background(), "", "2+2?", CompletionConfig{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "4" {
		t.Errorf("Run() = %q, want %q", got, "4")
	}
	if len(c.Calls) != 1 || c.Calls[0] != "2+2?" {
		t.Errorf("unexpected call log: %v", c.Calls)
	}
}

func TestFakeClientRunFallsBackToDefault(t *testing.T) {
	c := &FakeClient{Default: "fallback"}
	got, err := c.Run(context.Background(), "", "anything", CompletionConfig{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "fallback" {
		t.Errorf("Run() = %q, want %q", got, "fallback")
	}
}

func TestFakeClientRunPropagatesErr(t *testing.T) {
	wantErr := errors.New("boom")
	c := &FakeClient{Err: wantErr}
	_, err := c.Run(context.Background(), "", "x", CompletionConfig{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want %v", err, wantErr)
	}
}

func TestCompletionConfigWithDefaults(t *testing.T) {
	defaults := CompletionConfig{Model: "base-model", MaxTokens: 100, Seed: 7}
	cfg := CompletionConfig{MaxTokens: 500}
	merged := cfg.WithDefaults(defaults)
	if merged.Model != "base-model" {
		t.Errorf("Model = %q, want base-model", merged.Model)
	}
	if merged.MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500 (explicit value should win)", merged.MaxTokens)
	}
	if merged.Seed != 7 {
		t.Errorf("Seed = %d, want 7 (from defaults)", merged.Seed)
	}
}

func TestFakeClientRunUsesSequenceInOrder(t *testing.T) {
	c := &FakeClient{Sequence: []string{"first", "second"}, Default: "unused"}
	got1, _ := c.Run(context.Background(), "", "a", CompletionConfig{})
	got2, _ := c.Run(context.Background(), "", "b", CompletionConfig{})
	if got1 != "first" || got2 != "second" {
		t.Errorf("Run() sequence = %q, %q, want first, second", got1, got2)
	}
}

func TestIsRetryableClassification(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error must not be retryable")
	}
	if !IsRetryable(&RetryableError{Err: errors.New("rate limited")}) {
		t.Error("RetryableError must be retryable")
	}
}
