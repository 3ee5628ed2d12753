package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHEATSHEET_CONFIG", "CHEATSHEET_DATA_DIR", "CHEATSHEET_ADDR", "CHEATSHEET_LOG_LEVEL",
		"CHEATSHEET_REMEDIATION_THRESHOLD", "CHEATSHEET_LLM_PROVIDER", "CHEATSHEET_OPENROUTER_API_KEY",
		"OPENROUTER_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != "0.0.0.0:5001" {
		t.Errorf("addr = %q, want 0.0.0.0:5001", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != 16<<20 {
		t.Errorf("max upload = %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Tutor.RemediationThreshold != 0.7 {
		t.Errorf("threshold = %v, want 0.7", cfg.Tutor.RemediationThreshold)
	}
	if cfg.Quiz.DefaultCount != 10 || cfg.Quiz.Concurrency != 4 {
		t.Errorf("quiz = %+v", cfg.Quiz)
	}
	if cfg.LLM.Provider != "openrouter" || cfg.LLM.OpenRouter.Model != "openai/gpt-4o" {
		t.Errorf("llm = %s %s", cfg.LLM.Provider, cfg.LLM.OpenRouter.Model)
	}
	if cfg.LLM.Retry.MaxAttempts != 1 {
		t.Errorf("retry attempts = %d, want 1", cfg.LLM.Retry.MaxAttempts)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(os.Getenv("XDG_DATA_HOME"), "cheatsheet")
	if cfg.DataDir != want {
		t.Errorf("data dir = %q, want %q", cfg.DataDir, want)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_CHEATSHEET_KEY", "sk-from-env")

	path := writeConfig(t, `
data_dir: /srv/cheatsheet
server:
  addr: 127.0.0.1:8080
  shutdown_timeout: 3s
log:
  level: debug
tutor:
  remediation_threshold: 0.5
quiz:
  default_count: 5
llm:
  provider: openrouter
  openrouter:
    api_key: ${TEST_CHEATSHEET_KEY}
  timeout: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/srv/cheatsheet" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.MaxUploadBytes != 16<<20 {
		t.Errorf("unset field lost its default: %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Tutor.RemediationThreshold != 0.5 {
		t.Errorf("threshold = %v", cfg.Tutor.RemediationThreshold)
	}
	if cfg.Quiz.DefaultCount != 5 || cfg.Quiz.Concurrency != 4 {
		t.Errorf("quiz = %+v", cfg.Quiz)
	}
	if cfg.LLM.OpenRouter.APIKey != "sk-from-env" {
		t.Errorf("api key = %q", cfg.LLM.OpenRouter.APIKey)
	}
	if cfg.LLM.OpenRouter.Model != "openai/gpt-4o" {
		t.Errorf("model default lost: %q", cfg.LLM.OpenRouter.Model)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("llm timeout = %v", cfg.LLM.Timeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  addr: 127.0.0.1:8080\n")
	t.Setenv("CHEATSHEET_ADDR", ":9999")
	t.Setenv("CHEATSHEET_DATA_DIR", "/tmp/cs")
	t.Setenv("CHEATSHEET_REMEDIATION_THRESHOLD", "0.9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q, want :9999", cfg.Server.Addr)
	}
	if cfg.DataDir != "/tmp/cs" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.Tutor.RemediationThreshold != 0.9 {
		t.Errorf("threshold = %v", cfg.Tutor.RemediationThreshold)
	}
}

func TestConfigEnvVarPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHEATSHEET_CONFIG", writeConfig(t, "quiz:\n  concurrency: 2\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Quiz.Concurrency != 2 {
		t.Errorf("concurrency = %d, want 2", cfg.Quiz.Concurrency)
	}
}

func TestDiscoverLLMKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.Gemini.APIKey != "g-key" {
		t.Errorf("discovered %s %q", cfg.LLM.Provider, cfg.LLM.Gemini.APIKey)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for explicit missing file")
	}
	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(writeConfig(t, "tutor:\n  remediation_threshold: 1.5\n")); err == nil {
		t.Error("expected range error")
	}
	if _, err := Load(writeConfig(t, "log:\n  level: loud\n")); err == nil {
		t.Error("expected log level error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
