package llm

import "context"

// FakeClient is a deterministic stub Client for tests: it returns a fixed
// reply keyed by the prompt (falling back to Default), and never touches the
// network. Grounded on the teacher's own testing style of hand-written
// fakes rather than a mocking framework (see agent/errors_test.go and
// sibling _test.go files, none of which import a mock library).
type FakeClient struct {
	NameValue string
	Replies   map[string]string
	Default   string
	Err       error

	// Sequence, if non-empty, makes Run return its elements in call order
	// (Sequence[0] on the first call, Sequence[1] on the second, ...)
	// instead of consulting Replies/Default — useful for a harness test
	// driving a fixed multi-errand pipeline where several calls share the
	// same Default but must return different text at each step.
	Sequence []string

	// Calls records every prompt passed to Run, in order, for assertions.
	Calls []string
}

func (f *FakeClient) Name() string {
	if f.NameValue == "" {
		return "fake"
	}
	return f.NameValue
}

func (f *FakeClient) Run(ctx context.Context, prePrompt, prompt string, cfg CompletionConfig) (string, error) {
	call := len(f.Calls)
	f.Calls = append(f.Calls, prompt)
	if f.Err != nil {
		return "", f.Err
	}
	if call < len(f.Sequence) {
		return f.Sequence[call], nil
	}
	if reply, ok := f.Replies[prompt]; ok {
		return reply, nil
	}
	return f.Default, nil
}

func (f *FakeClient) RunMessages(ctx context.Context, messages []Message, cfg CompletionConfig) (string, error) {
	if len(messages) == 0 {
		return f.Default, f.Err
	}
	last := messages[len(messages)-1]
	return f.Run(ctx, "", last.Content, cfg)
}
