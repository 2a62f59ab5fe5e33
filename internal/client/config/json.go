package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/spf13/pflag"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// keep the value from earlier sources.
type JsonConfig struct {
	AuthServerAddr      string `json:"auth_server_addr"`
	DatabasePath        string `json:"database_path"`
	ChannelPollInterval string `json:"channel_poll_interval"`
	OAuthClientID       string `json:"oauth_client_id"`
	PageURL             string `json:"page_url"`
	LogLevel            string `json:"log_level"`
	OTelEndpoint        string `json:"otel_endpoint"`
}

func jsonConfigPath(fs *pflag.FlagSet) string {
	return flagx.JSONConfigPath(fs)
}

// parseJSON overlays cfg with the JSON file at path. An empty path loads
// nothing.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.AuthServerAddr, jc.AuthServerAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.OAuthClientID, jc.OAuthClientID)
	setString(&cfg.PageURL, jc.PageURL)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.OTelEndpoint, jc.OTelEndpoint)

	if jc.ChannelPollInterval != "" {
		d, err := time.ParseDuration(jc.ChannelPollInterval)
		if err != nil {
			return fmt.Errorf("parse channel_poll_interval: %w", err)
		}
		cfg.ChannelPollInterval = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
