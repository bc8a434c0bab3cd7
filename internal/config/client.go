package config

import (
	"fmt"

	"github.com/nexusharness/loom/internal/llm"
	"github.com/nexusharness/loom/internal/session"
)

// BuildClient constructs the llm.Client a session should use from cfg: a
// bare provider client if ByErrand is empty, otherwise a session.ClientProfile
// routing each overridden errand to its own provider and everything else to
// DefaultProvider.
func (c LLMConfig) BuildClient() (llm.Client, error) {
	def, err := buildProvider(c.DefaultProvider, c.Providers[c.DefaultProvider])
	if err != nil {
		return nil, fmt.Errorf("config: default provider: %w", err)
	}
	if len(c.ByErrand) == 0 {
		return def, nil
	}

	profile := &session.ClientProfile{ByErrand: map[string]llm.Client{}, Default: def}
	for errandName, pc := range c.ByErrand {
		client, err := buildProvider(pc.Provider, pc)
		if err != nil {
			return nil, fmt.Errorf("config: errand %q provider: %w", errandName, err)
		}
		profile.ByErrand[errandName] = client
	}
	return profile, nil
}

func buildProvider(name string, pc ProviderConfig) (llm.Client, error) {
	switch name {
	case "", "fake":
		return &llm.FakeClient{}, nil
	case "anthropic":
		return llm.NewAnthropicClient(llm.AnthropicConfig{
			APIKey:       pc.APIKey,
			BaseURL:      pc.BaseURL,
			DefaultModel: pc.DefaultModel,
		})
	case "openai":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:       pc.APIKey,
			BaseURL:      pc.BaseURL,
			DefaultModel: pc.DefaultModel,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
