package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJSON_EmptyPath(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	want := cfg

	require.NoError(t, parseJSON(&cfg, ""))
	assert.Equal(t, want, cfg)
}

func TestParseJSON_OverlaysPresentFields(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	path := writeFile(t, `{"page_url":"https://example.com/?resume=x","otel_endpoint":"http://collector:4318","channel_poll_interval":"100ms"}`)
	require.NoError(t, parseJSON(&cfg, path))

	assert.Equal(t, "https://example.com/?resume=x", cfg.PageURL)
	assert.Equal(t, "http://collector:4318", cfg.OTelEndpoint)
	assert.Equal(t, 100*time.Millisecond, cfg.ChannelPollInterval)
	assert.Equal(t, "127.0.0.1:50051", cfg.AuthServerAddr)
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
			want: "read config file",
		},
		{
			name: "malformed json",
			path: func(t *testing.T) string { return writeFile(t, `{"auth_server_addr":`) },
			want: "parse config file",
		},
		{
			name: "bad duration",
			path: func(t *testing.T) string { return writeFile(t, `{"channel_poll_interval":"fast"}`) },
			want: "parse channel_poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			err := parseJSON(&cfg, tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
