// Package config provides configuration management for the oracle feed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Oracle      OracleConfig  `mapstructure:"oracle"`
	Feed        FeedConfig    `mapstructure:"feed"`
	Store       StoreConfig   `mapstructure:"store"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Symbols     []SymbolEntry `mapstructure:"symbols"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// OracleConfig holds oracle query configuration.
type OracleConfig struct {
	Model            string  `mapstructure:"model"`
	Responders       int     `mapstructure:"responders"`
	Quorum           int     `mapstructure:"quorum"` // 0 means strict majority
	TolerancePercent float64 `mapstructure:"tolerance_percent"`
	TimeoutSec       int     `mapstructure:"timeout_sec"`
	RetryAttempts    int     `mapstructure:"retry_attempts"`
}

// FeedConfig holds feed-level defaults.
type FeedConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"` // empty means <config dir>/alerts.db
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// SymbolEntry is an administrative registry extension.
type SymbolEntry struct {
	Ticker   string `mapstructure:"ticker"`
	SourceID string `mapstructure:"source_id"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// OpenAICredentials holds the oracle backend API key.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/oraclefeed"
	}
	return filepath.Join(home, ".config", "oraclefeed")
}

// StorePath returns the alert database path, defaulting into configDir.
func (c *Config) StorePath(configDir string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(configDir, "alerts.db")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.responders", 3)
	v.SetDefault("oracle.quorum", 0)
	v.SetDefault("oracle.tolerance_percent", 0.5)
	v.SetDefault("oracle.timeout_sec", 60)
	v.SetDefault("oracle.retry_attempts", 2)
	v.SetDefault("feed.default_currency", "usd")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("ORACLEFEED_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("ORACLEFEED_CURRENCY"); v != "" {
		cfg.Feed.DefaultCurrency = v
	}
	if v := os.Getenv("ORACLEFEED_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("ORACLEFEED_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Oracle.Responders < 1 {
		return fmt.Errorf("oracle.responders must be at least 1, got %d", c.Oracle.Responders)
	}
	if c.Oracle.Quorum < 0 || c.Oracle.Quorum > c.Oracle.Responders {
		return fmt.Errorf("oracle.quorum must be between 0 and %d, got %d", c.Oracle.Responders, c.Oracle.Quorum)
	}
	if c.Oracle.TolerancePercent < 0 {
		return fmt.Errorf("oracle.tolerance_percent must be non-negative, got %f", c.Oracle.TolerancePercent)
	}
	if c.Oracle.TimeoutSec < 1 {
		return fmt.Errorf("oracle.timeout_sec must be at least 1, got %d", c.Oracle.TimeoutSec)
	}
	for _, s := range c.Symbols {
		if s.Ticker == "" || s.SourceID == "" {
			return fmt.Errorf("symbols entries need both ticker and source_id, got %q -> %q", s.Ticker, s.SourceID)
		}
	}
	return nil
}
