package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ErrInvalidConfig is wrapped by Validate failures.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings for the accounts CLI.
type Config struct {
	// AuthServerAddr is the host:port of the auth gRPC endpoint.
	AuthServerAddr string `env:"ACCOUNTKEEPER_AUTH_ADDR"`
	// DatabasePath is the SQLite file holding local storage and the
	// cross-process notification channel.
	DatabasePath string `env:"ACCOUNTKEEPER_DB"`
	// ChannelPollInterval is how often the notification channel is polled
	// for messages from other processes.
	ChannelPollInterval time.Duration `env:"ACCOUNTKEEPER_POLL_INTERVAL"`
	OAuthClientID       string        `env:"ACCOUNTKEEPER_OAUTH_CLIENT_ID"`
	// PageURL is the location the store treats as its window; a resume
	// token in its query is honored.
	PageURL      string `env:"ACCOUNTKEEPER_PAGE_URL"`
	LogLevel     string `env:"ACCOUNTKEEPER_LOG_LEVEL"`
	OTelEndpoint string `env:"ACCOUNTKEEPER_OTEL_ENDPOINT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.AuthServerAddr = "127.0.0.1:50051"
	c.DatabasePath = "accounts.db"
	c.ChannelPollInterval = 2 * time.Second
	c.LogLevel = "info"
}

// Load builds a Config from defaults, the JSON file, the environment and
// the flags in fs, in that order. fs must have been parsed and may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, jsonConfigPath(fs)); err != nil {
		return nil, err
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings no component can run with.
func (c *Config) Validate() error {
	if c.ChannelPollInterval <= 0 {
		return fmt.Errorf("%w: channel poll interval must be positive, got %s", ErrInvalidConfig, c.ChannelPollInterval)
	}
	return nil
}
