package config

import (
	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/spf13/pflag"
)

// RegisterFlags defines the configuration flags on fs. Their defaults are
// the built-in defaults; values from JSON or the environment are only
// overridden by flags the user sets.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagx.ConfigFlag, "c", "", "path to JSON config file")
	fs.StringP("auth-addr", "a", d.AuthServerAddr, "address and port of the auth server")
	fs.String("db", d.DatabasePath, "path to the local database")
	fs.Duration("poll-interval", d.ChannelPollInterval, "how often to poll for notifications from other processes")
	fs.String("oauth-client-id", d.OAuthClientID, "OAuth client id used by accounts")
	fs.String("page-url", d.PageURL, "page URL the store runs under")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.String("otel-endpoint", d.OTelEndpoint, "OTLP/HTTP endpoint for traces")
}

// applyFlags copies every flag the user set into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "auth-addr":
			cfg.AuthServerAddr, err = fs.GetString(f.Name)
		case "db":
			cfg.DatabasePath, err = fs.GetString(f.Name)
		case "poll-interval":
			cfg.ChannelPollInterval, err = fs.GetDuration(f.Name)
		case "oauth-client-id":
			cfg.OAuthClientID, err = fs.GetString(f.Name)
		case "page-url":
			cfg.PageURL, err = fs.GetString(f.Name)
		case "log-level":
			cfg.LogLevel, err = fs.GetString(f.Name)
		case "otel-endpoint":
			cfg.OTelEndpoint, err = fs.GetString(f.Name)
		}
	})
	return err
}
