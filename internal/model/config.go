package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// MailConfig holds the IMAP account settings. The password is not stored
// here; it lives in the system keyring (or the environment) and is supplied
// separately to the mail client.
type MailConfig struct {
	// Address is the account's email address, used both for login and
	// as the From header on generated drafts.
	Address string `mapstructure:"address" yaml:"address"`

	// Host is the IMAP server hostname.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the IMAP port (993 for implicit TLS).
	Port int `mapstructure:"port" yaml:"port"`

	// TLS controls implicit TLS vs STARTTLS.
	TLS bool `mapstructure:"tls" yaml:"tls"`

	// FetchLimit is how many of the most recent messages to process per run.
	FetchLimit int `mapstructure:"fetch_limit" yaml:"fetch_limit"`
}

// AIConfig holds settings for the draft-generation pipeline.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// StoreConfig holds settings for the local run ledger.
type StoreConfig struct {
	// Path is the SQLite database file; empty means the default location
	// next to the config file.
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Mail  MailConfig  `mapstructure:"mail" yaml:"mail"`
	AI    AIConfig    `mapstructure:"ai" yaml:"ai"`
	Store StoreConfig `mapstructure:"store" yaml:"store"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailagent/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailagent", "config.yaml")
}

// DefaultStorePath returns the default location of the run ledger database.
func DefaultStorePath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "runs.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mail: MailConfig{
			Host:       "imap.gmail.com",
			Port:       993,
			TLS:        true,
			FetchLimit: 2,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mail.host", "imap.gmail.com")
	v.SetDefault("mail.port", 993)
	v.SetDefault("mail.tls", true)
	v.SetDefault("mail.fetch_limit", 2)
	v.SetDefault("ai.model", "claude-sonnet-4-20250514")
	v.SetDefault("ai.max_tokens", 4096)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the fields required before any network attempt is made.
// The entrypoint calls it so misconfiguration fails fast.
func (c *AppConfig) Validate() error {
	if c.Mail.Address == "" {
		return fmt.Errorf("mail.address is required")
	}
	if c.Mail.Host == "" {
		return fmt.Errorf("mail.host is required")
	}
	if c.Mail.Port <= 0 {
		return fmt.Errorf("mail.port must be positive, got %d", c.Mail.Port)
	}
	if c.Mail.FetchLimit < 1 {
		return fmt.Errorf("mail.fetch_limit must be >= 1, got %d", c.Mail.FetchLimit)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("mail", cfg.Mail)
	v.Set("ai", cfg.AI)
	v.Set("store", cfg.Store)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
