package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
telegram:
  token: "123456:test-token"
plantid:
  api_key: "plant-key"
persona:
  api_key: "persona-key"
`

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}

	if cfg.Logger.Level != "info" {
		t.Errorf("logger.level = %q, want info", cfg.Logger.Level)
	}
	if cfg.PlantID.BaseURL != "https://plant.id/api/v3" {
		t.Errorf("plantid.base_url = %q, want default", cfg.PlantID.BaseURL)
	}
	if cfg.PlantID.AskModel != "gpt-3.5-turbo.demo" {
		t.Errorf("plantid.ask_model = %q, want default", cfg.PlantID.AskModel)
	}
	if !cfg.KB.Enabled || cfg.KB.CacheSize != 256 {
		t.Errorf("kb defaults = %+v, want enabled with cache_size 256", cfg.KB)
	}
	if cfg.Persona.Provider != "openrouter" || cfg.Persona.Model != "x-ai/grok-2-1212" {
		t.Errorf("persona defaults = %+v", cfg.Persona)
	}
	if cfg.State.PendingTTL != 30*time.Minute {
		t.Errorf("state.pending_ttl = %v, want 30m", cfg.State.PendingTTL)
	}
	if cfg.Database.RetentionDays != 90 {
		t.Errorf("database.retention_days = %d, want 90", cfg.Database.RetentionDays)
	}
	if len(cfg.Scheduler.Tasks) != 2 {
		t.Errorf("scheduler tasks = %d, want 2", len(cfg.Scheduler.Tasks))
	}
	if cfg.Messages.Welcome == "" || cfg.Messages.AskPhoto == "" {
		t.Error("expected default message texts to be populated")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, minimalConfig+`
logger:
  level: debug
kb:
  enabled: false
state:
  pending_ttl: 10m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}

	if cfg.Logger.Level != "debug" {
		t.Errorf("logger.level = %q, want debug", cfg.Logger.Level)
	}
	if cfg.KB.Enabled {
		t.Error("kb.enabled = true, want false from file")
	}
	if cfg.State.PendingTTL != 10*time.Minute {
		t.Errorf("state.pending_ttl = %v, want 10m", cfg.State.PendingTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, minimalConfig)
	t.Setenv("BOT_LOGGER_LEVEL", "warn")
	t.Setenv("BOT_DATABASE_PATH", "override.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}

	if cfg.Logger.Level != "warn" {
		t.Errorf("logger.level = %q, want warn from environment", cfg.Logger.Level)
	}
	if cfg.Database.Path != "override.db" {
		t.Errorf("database.path = %q, want override.db from environment", cfg.Database.Path)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{
			name: "missing telegram token",
			content: `
plantid:
  api_key: "plant-key"
`,
		},
		{
			name: "missing plantid api key",
			content: `
telegram:
  token: "123456:test-token"
`,
		},
		{
			name: "invalid log level",
			content: minimalConfig + `
logger:
  level: verbose
`,
		},
		{
			name: "persona enabled without api key",
			content: `
telegram:
  token: "123456:test-token"
plantid:
  api_key: "plant-key"
persona:
  enabled: true
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.content)
			if _, err := Load(path); err == nil {
				t.Error("Load succeeded, want validation error")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:env-token")
	t.Setenv("BOT_PLANTID_API_KEY", "plant-key")
	t.Setenv("BOT_PERSONA_API_KEY", "persona-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}
	if cfg.Telegram.Token != "123456:env-token" {
		t.Errorf("telegram.token = %q, want value from environment", cfg.Telegram.Token)
	}
}
