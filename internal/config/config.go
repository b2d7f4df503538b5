// Package config provides configuration loading, validation, and management
// for the Papa Bois bot. It reads defaults, an optional config.yaml file,
// and BOT_-prefixed environment variables, then validates the result.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the bot: logging, Telegram transport, the plant-identification service,
// persona generation, knowledge-base enrichment, storage, metrics, and
// scheduled tasks.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	PlantID   PlantIDConfig   `mapstructure:"plantid"`
	KB        KBConfig        `mapstructure:"kb"`
	Persona   PersonaConfig   `mapstructure:"persona"`
	State     StateConfig     `mapstructure:"state"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and runtime bot identity.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// BotInfo is populated at startup via GetMe and is not read from config.
	BotInfo *models.User `mapstructure:"-"`
}

// PlantIDConfig configures the external plant-identification service client.
type PlantIDConfig struct {
	APIKey  string        `mapstructure:"api_key"  validate:"required"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"min=1s,max=5m"`

	// AskModel is the model identifier passed to the identification service's
	// conversation endpoint for the healing-properties question.
	AskModel string `mapstructure:"ask_model"`
}

// KBConfig gates knowledge-base enrichment of identification candidates.
type KBConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	CacheSize int  `mapstructure:"cache_size" validate:"min=1,max=65536"`
}

// PersonaConfig gates and configures plant-persona narrative generation.
type PersonaConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider" validate:"oneof=openrouter gemini"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// StateConfig controls the conversation state tracker.
type StateConfig struct {
	// PendingTTL is how long an awaiting-photo entry may sit idle before the
	// state expiry task clears it.
	PendingTTL time.Duration `mapstructure:"pending_ttl" validate:"min=1m,max=24h"`
}

// DatabaseConfig configures the SQLite identification-history store.
type DatabaseConfig struct {
	Path          string `mapstructure:"path" validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=1,max=3650"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// TaskConfig enables a scheduled task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds all user-facing reply texts.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	AskPhoto      string `mapstructure:"ask_photo"      validate:"required"`
	NotPhoto      string `mapstructure:"not_photo"      validate:"required"`
	Processing    string `mapstructure:"processing"     validate:"required"`
	Channeling    string `mapstructure:"channeling"     validate:"required"`
	GeneralError  string `mapstructure:"general_error"  validate:"required"`
	HistoryEmpty  string `mapstructure:"history_empty"  validate:"required"`
	HistoryHeader string `mapstructure:"history_header" validate:"required"`
}

// Load reads configuration from the given YAML file (optional), overlays
// BOT_-prefixed environment variables, applies defaults, and validates the
// result. Startup must fail hard when a required secret is missing.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Info("configuration file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Persona credentials are only required when the feature is on.
	if cfg.Persona.Enabled && cfg.Persona.APIKey == "" {
		return nil, fmt.Errorf("config validation failed: persona.api_key is required when persona.enabled is true")
	}

	slog.Info("configuration loaded",
		"log_level", cfg.Logger.Level,
		"kb_enabled", cfg.KB.Enabled,
		"persona_enabled", cfg.Persona.Enabled,
		"persona_provider", cfg.Persona.Provider,
		"db_path", cfg.Database.Path)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	// Secrets default to empty so AutomaticEnv can bind them when no config
	// file provides the key.
	v.SetDefault("telegram.token", "")
	v.SetDefault("plantid.api_key", "")
	v.SetDefault("persona.api_key", "")

	v.SetDefault("plantid.base_url", "https://plant.id/api/v3")
	v.SetDefault("plantid.timeout", 30*time.Second)
	v.SetDefault("plantid.ask_model", "gpt-3.5-turbo.demo")

	v.SetDefault("kb.enabled", true)
	v.SetDefault("kb.cache_size", 256)

	v.SetDefault("persona.enabled", true)
	v.SetDefault("persona.provider", "openrouter")
	v.SetDefault("persona.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("persona.model", "x-ai/grok-2-1212")
	v.SetDefault("persona.temperature", 1.0)
	v.SetDefault("persona.timeout", 2*time.Minute)

	v.SetDefault("state.pending_ttl", 30*time.Minute)

	v.SetDefault("database.path", "papabois.db")
	v.SetDefault("database.retention_days", 90)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9090")

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 4 * * *")
	v.SetDefault("scheduler.tasks.state_expiry.enabled", true)
	v.SetDefault("scheduler.tasks.state_expiry.schedule", "*/5 * * * *")

	v.SetDefault("messages.welcome", "🌿 Welcome! This bot identifies plants from photos.\nType /whois_plant to begin.")
	v.SetDefault("messages.ask_photo", "📸 Please send me a photo of the plant you want to identify.")
	v.SetDefault("messages.not_photo", "Please send a photo 📸 of the plant you want to identify.")
	v.SetDefault("messages.processing", "🔍 Processing your plant photo... Please wait...")
	v.SetDefault("messages.channeling", "🌟 Let me channel the spirit of this plant...")
	v.SetDefault("messages.general_error", "❌ An error occurred. Please try again later.")
	v.SetDefault("messages.history_empty", "You haven't identified any plants yet. Type /whois_plant to begin.")
	v.SetDefault("messages.history_header", "🌿 *Your recent plants*\n\n")
}
