package session

import (
	"context"

	"github.com/nexusharness/loom/internal/errand"
	"github.com/nexusharness/loom/internal/llm"
)

// ClientProfile routes each errand call to a distinct llm.Client, falling
// back to Default when an errand has no dedicated entry — spec.md §9's
// supplemented "per-errand client/provider selection", grounded on
// original_source/backend/frame/clients.py's per-task client map (there, a
// dict of task name to configured OpenAI/Anthropic client).
//
// ClientProfile itself satisfies llm.Client, so it can be handed to
// session.New like any single provider; Harness threads the calling
// errand's name through ctx via errand.WithName without needing to know
// about routing at all.
type ClientProfile struct {
	ByErrand map[string]llm.Client
	Default  llm.Client
}

func (p *ClientProfile) pick(ctx context.Context) llm.Client {
	if name, ok := errand.NameFromContext(ctx); ok {
		if c, ok := p.ByErrand[name]; ok {
			return c
		}
	}
	return p.Default
}

// Name identifies the profile for logging; individual picks log under their
// own provider's Name() once selected.
func (p *ClientProfile) Name() string { return "client_profile" }

func (p *ClientProfile) Run(ctx context.Context, prePrompt, prompt string, cfg llm.CompletionConfig) (string, error) {
	return p.pick(ctx).Run(ctx, prePrompt, prompt, cfg)
}

func (p *ClientProfile) RunMessages(ctx context.Context, messages []llm.Message, cfg llm.CompletionConfig) (string, error) {
	return p.pick(ctx).RunMessages(ctx, messages, cfg)
}
