package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the Karlancer bot.
type Config struct {
	PollInterval time.Duration
	Query        string
	AutoSubmit   bool
	StrictMode   bool // reserved, parsed and logged but not acted on yet
	DataDir      string
	Marketplace  MarketplaceConfig
	Analyzer     AnalyzerConfig
	Telegram     TelegramConfig
	Filter       FilterConfig
}

// MarketplaceConfig holds the Karlancer API settings.
type MarketplaceConfig struct {
	BaseURL     string
	BearerToken string        // expanded from env var by Load
	MinGap      time.Duration // minimum gap between API requests
}

// AnalyzerConfig controls the external analysis command.
type AnalyzerConfig struct {
	Command    string
	Timeout    time.Duration
	PromptFile string // optional override for the embedded prompt preamble
}

// TelegramConfig controls the optional Telegram status channel.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// FilterConfig holds the keyword predicate settings. Empty lists match all, so
// the zero value disables filtering entirely.
type FilterConfig struct {
	TechWhitelist []string
	TechBlacklist []string
	MinBudget     int64
}

const (
	defaultBaseURL = "https://www.karlancer.com"
	defaultQuery   = "python"
	defaultCommand = "claude"
	defaultDataDir = "data"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	PollInterval string               `yaml:"poll_interval"`
	Query        string               `yaml:"query"`
	AutoSubmit   bool                 `yaml:"auto_submit"`
	StrictMode   bool                 `yaml:"strict_mode"`
	DataDir      string               `yaml:"data_dir"`
	Marketplace  rawMarketplaceConfig `yaml:"marketplace"`
	Analyzer     rawAnalyzerConfig    `yaml:"analyzer"`
	Telegram     TelegramConfig       `yaml:"telegram"`
	Filter       rawFilterConfig      `yaml:"filter"`
}

type rawMarketplaceConfig struct {
	BaseURL     string `yaml:"base_url"`
	BearerToken string `yaml:"bearer_token"`
	MinGap      string `yaml:"min_gap"`
}

type rawAnalyzerConfig struct {
	Command    string `yaml:"command"`
	Timeout    string `yaml:"timeout"`
	PromptFile string `yaml:"prompt_file"`
}

type rawFilterConfig struct {
	TechWhitelist []string `yaml:"tech_whitelist"`
	TechBlacklist []string `yaml:"tech_blacklist"`
	MinBudget     int64    `yaml:"min_budget"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (bearer token, bot token).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := 5 * time.Minute // default: original check interval
	if raw.PollInterval != "" {
		interval, err = time.ParseDuration(raw.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("parse poll_interval %q: %w", raw.PollInterval, err)
		}
	}

	analyzerTimeout := 300 * time.Second // default
	if raw.Analyzer.Timeout != "" {
		analyzerTimeout, err = time.ParseDuration(raw.Analyzer.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse analyzer.timeout %q: %w", raw.Analyzer.Timeout, err)
		}
	}

	minGap := 1 * time.Second
	if raw.Marketplace.MinGap != "" {
		minGap, err = time.ParseDuration(raw.Marketplace.MinGap)
		if err != nil {
			return nil, fmt.Errorf("parse marketplace.min_gap %q: %w", raw.Marketplace.MinGap, err)
		}
	}

	cfg := &Config{
		PollInterval: interval,
		Query:        valueOr(raw.Query, defaultQuery),
		AutoSubmit:   raw.AutoSubmit,
		StrictMode:   raw.StrictMode,
		DataDir:      valueOr(raw.DataDir, defaultDataDir),
		Marketplace: MarketplaceConfig{
			BaseURL:     valueOr(raw.Marketplace.BaseURL, defaultBaseURL),
			BearerToken: raw.Marketplace.BearerToken,
			MinGap:      minGap,
		},
		Analyzer: AnalyzerConfig{
			Command:    valueOr(raw.Analyzer.Command, defaultCommand),
			Timeout:    analyzerTimeout,
			PromptFile: raw.Analyzer.PromptFile,
		},
		Telegram: raw.Telegram,
		Filter: FilterConfig{
			TechWhitelist: raw.Filter.TechWhitelist,
			TechBlacklist: raw.Filter.TechBlacklist,
			MinBudget:     raw.Filter.MinBudget,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", cfg.PollInterval)
	}
	if cfg.Marketplace.BearerToken == "" {
		return fmt.Errorf("marketplace.bearer_token is required")
	}
	if cfg.Analyzer.Timeout <= 0 {
		return fmt.Errorf("analyzer.timeout must be positive, got %v", cfg.Analyzer.Timeout)
	}
	if cfg.Telegram.Enabled {
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram.enabled is true")
		}
		if cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram.enabled is true")
		}
	}
	if cfg.Filter.MinBudget < 0 {
		return fmt.Errorf("filter.min_budget must not be negative, got %d", cfg.Filter.MinBudget)
	}
	return nil
}
