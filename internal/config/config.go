// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the sendgrid-send CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultTimeoutSeconds bounds the single mail.send request.
const defaultTimeoutSeconds = 30

// Config holds the complete CLI configuration.
type Config struct {
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SendGridConfig holds SendGrid API configuration.
type SendGridConfig struct {
	APIKey         string `yaml:"api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible
// defaults. Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Configured returns true if the API key and the default sender address
// are both set.
func (c *Config) Configured() bool {
	return c.SendGrid.APIKey != "" && c.SendGrid.FromAddress != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SendGrid.TimeoutSeconds = defaultTimeoutSeconds
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		c.SendGrid.APIKey = v
	}
	if v := os.Getenv("SENDGRID_FROM"); v != "" {
		c.SendGrid.FromAddress = v
	}
	if v := os.Getenv("SENDGRID_FROM_NAME"); v != "" {
		c.SendGrid.FromName = v
	}
	if v := os.Getenv("SENDGRID_TIMEOUT_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			c.SendGrid.TimeoutSeconds = seconds
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
