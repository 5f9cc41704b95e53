package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
marketplace:
  bearer_token: "test-token"
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want 5m", cfg.PollInterval)
	}
	if cfg.Query != "python" {
		t.Errorf("Query = %q, want python", cfg.Query)
	}
	if cfg.Analyzer.Timeout != 300*time.Second {
		t.Errorf("Analyzer.Timeout = %v, want 300s", cfg.Analyzer.Timeout)
	}
	if cfg.Marketplace.BaseURL != "https://www.karlancer.com" {
		t.Errorf("BaseURL = %q", cfg.Marketplace.BaseURL)
	}
	if cfg.AutoSubmit {
		t.Error("AutoSubmit should default to false")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("KARLANCER_TOKEN", "secret-from-env")

	cfg, err := Load(writeConfig(t, `
marketplace:
  bearer_token: "${KARLANCER_TOKEN}"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Marketplace.BearerToken != "secret-from-env" {
		t.Errorf("BearerToken = %q, want secret-from-env", cfg.Marketplace.BearerToken)
	}
}

func TestLoadMissingToken(t *testing.T) {
	_, err := Load(writeConfig(t, `
query: django
`))
	if err == nil {
		t.Fatal("expected error for missing bearer token")
	}
	if !strings.Contains(err.Error(), "bearer_token") {
		t.Errorf("error = %v, want mention of bearer_token", err)
	}
}

func TestLoadTelegramValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
marketplace:
  bearer_token: "tok"
telegram:
  enabled: true
  bot_token: "bot"
`))
	if err == nil {
		t.Fatal("expected error for missing telegram chat_id")
	}
}

func TestLoadBadInterval(t *testing.T) {
	_, err := Load(writeConfig(t, `
poll_interval: "not-a-duration"
marketplace:
  bearer_token: "tok"
`))
	if err == nil {
		t.Fatal("expected error for unparseable poll_interval")
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
poll_interval: "2m"
query: "telegram bot"
auto_submit: true
strict_mode: true
data_dir: "/tmp/karlancer"
marketplace:
  base_url: "https://staging.karlancer.test"
  bearer_token: "tok"
  min_gap: "3s"
analyzer:
  command: "claude"
  timeout: "120s"
filter:
  tech_whitelist: ["python", "django"]
  tech_blacklist: ["wordpress"]
  min_budget: 1500000
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PollInterval != 2*time.Minute {
		t.Errorf("PollInterval = %v, want 2m", cfg.PollInterval)
	}
	if !cfg.AutoSubmit || !cfg.StrictMode {
		t.Error("auto_submit and strict_mode should be true")
	}
	if cfg.Marketplace.MinGap != 3*time.Second {
		t.Errorf("MinGap = %v, want 3s", cfg.Marketplace.MinGap)
	}
	if len(cfg.Filter.TechWhitelist) != 2 || cfg.Filter.MinBudget != 1500000 {
		t.Errorf("filter config not parsed: %+v", cfg.Filter)
	}
}
