package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.AuthServerAddr)
	assert.Equal(t, "accounts.db", c.DatabasePath)
	assert.Equal(t, 2*time.Second, c.ChannelPollInterval)
	assert.Equal(t, "info", c.LogLevel)
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv(flagx.ConfigEnv, "")

	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	if diff := cmp.Diff(&want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"auth_server_addr": "json:1",
		"database_path": "json.db",
		"channel_poll_interval": "5s",
		"log_level": "debug"
	}`), 0o600))

	t.Setenv("ACCOUNTKEEPER_DB", "env.db")
	t.Setenv("ACCOUNTKEEPER_OAUTH_CLIENT_ID", "env-client")

	cfg, err := Load(newFlagSet(t, "-c", path, "--db", "flag.db"))
	require.NoError(t, err)

	want := &Config{
		AuthServerAddr:      "json:1",
		DatabasePath:        "flag.db",
		ChannelPollInterval: 5 * time.Second,
		OAuthClientID:       "env-client",
		LogLevel:            "debug",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv(flagx.ConfigEnv, "")
	t.Setenv("ACCOUNTKEEPER_AUTH_ADDR", "env:2")

	cfg, err := Load(newFlagSet(t, "--log-level", "warn"))
	require.NoError(t, err)

	assert.Equal(t, "env:2", cfg.AuthServerAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_NilFlagSet(t *testing.T) {
	t.Setenv(flagx.ConfigEnv, "")
	t.Setenv("ACCOUNTKEEPER_POLL_INTERVAL", "250ms")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.ChannelPollInterval)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv(flagx.ConfigEnv, "")
	t.Setenv("ACCOUNTKEEPER_POLL_INTERVAL", "soon")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestLoad_RejectsNonPositivePollInterval(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnv, "")
		_, err := Load(newFlagSet(t, "--poll-interval", "0s"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnv, "")
		t.Setenv("ACCOUNTKEEPER_POLL_INTERVAL", "-1s")
		_, err := Load(nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"channel_poll_interval":"0s"}`), 0o600))
		t.Setenv(flagx.ConfigEnv, path)
		_, err := Load(nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}
