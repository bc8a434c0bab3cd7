// Package config loads loom's YAML configuration file: which LM provider
// backs a session, the per-errand ClientProfile overrides, trace output,
// and FrameConfigV4-equivalent session defaults (spec.md §9).
//
// The yaml.v3 struct-tag schema plus $-prefixed environment variable
// expansion follows the teacher's internal/config (LoadRaw's
// os.ExpandEnv pass before unmarshal), trimmed from the teacher's ~20-file,
// multi-channel-gateway schema down to the handful of fields a
// single-session harness core actually reads.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nexusharness/loom/internal/session"
)

// Config is the root configuration loaded from a loom config file.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Session SessionConfig `yaml:"session"`
	Trace   TraceConfig   `yaml:"trace"`
}

// LLMConfig selects and configures the language model backing a session.
type LLMConfig struct {
	// DefaultProvider is used for every errand without a ByErrand override:
	// "anthropic", "openai", or "fake".
	DefaultProvider string `yaml:"default_provider"`

	// ByErrand overrides DefaultProvider for specific errand names (the
	// errand.Message* constants), realizing spec.md §9's client_profile
	// feature from the config file rather than only from Go call sites.
	ByErrand map[string]ProviderConfig `yaml:"by_errand"`

	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures one concrete LM provider. Provider selects the
// backing implementation ("anthropic", "openai", "fake"); it is redundant
// with the key a ProviderConfig is stored under in LLMConfig.Providers, but
// required standalone for a ByErrand entry, which is keyed by errand name
// instead.
type ProviderConfig struct {
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
}

// SessionConfig is the YAML shape of session.Config.
type SessionConfig struct {
	LongContextCutoff int    `yaml:"long_context_cutoff"`
	MaxIterations     int    `yaml:"max_iterations"`
	InteractionLevel  string `yaml:"interaction_level"`
}

// ToSessionConfig converts the YAML-decoded shape to session.Config,
// filling in session.DefaultConfig()'s values for anything left at zero.
func (c SessionConfig) ToSessionConfig() session.Config {
	defaults := session.DefaultConfig()
	cfg := session.Config{
		LongContextCutoff: c.LongContextCutoff,
		MaxIterations:     c.MaxIterations,
		InteractionLevel:  c.InteractionLevel,
	}
	if cfg.LongContextCutoff == 0 {
		cfg.LongContextCutoff = defaults.LongContextCutoff
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.InteractionLevel == "" {
		cfg.InteractionLevel = defaults.InteractionLevel
	}
	return cfg
}

// TraceConfig configures the Trace Sink.
type TraceConfig struct {
	Path string `yaml:"path"`
	Echo bool   `yaml:"echo"`
}

// Load reads and parses path as a loom config file, expanding ${VAR}/$VAR
// environment references first — the teacher's loader.go does the same
// os.ExpandEnv pass so secrets (API keys) never need to live in the file
// itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
