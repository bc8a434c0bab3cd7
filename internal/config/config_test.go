package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "loom.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("LOOM_TEST_KEY", "secret-value")
	path := writeTempConfig(t, `
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: ${LOOM_TEST_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.LLM.Providers["anthropic"].APIKey; got != "secret-value" {
		t.Errorf("APIKey = %q, want expanded env value", got)
	}
}

func TestToSessionConfigFillsDefaults(t *testing.T) {
	cfg := SessionConfig{MaxIterations: 5}.ToSessionConfig()
	if cfg.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5 (explicit value preserved)", cfg.MaxIterations)
	}
	if cfg.LongContextCutoff == 0 {
		t.Error("expected LongContextCutoff to fall back to session.DefaultConfig()")
	}
	if cfg.InteractionLevel == "" {
		t.Error("expected InteractionLevel to fall back to session.DefaultConfig()")
	}
}

func TestBuildClientDefaultProviderOnly(t *testing.T) {
	cfg := LLMConfig{DefaultProvider: "fake"}
	client, err := cfg.BuildClient()
	if err != nil {
		t.Fatalf("BuildClient() error = %v", err)
	}
	if client == nil {
		t.Fatal("expected a non-nil client")
	}
}

func TestBuildClientUnknownProviderErrors(t *testing.T) {
	cfg := LLMConfig{DefaultProvider: "carrier-pigeon"}
	if _, err := cfg.BuildClient(); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
