// Package config loads runtime configuration for the accounts CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config/-c or ACCOUNTKEEPER_CONFIG.
//  3. Environment variables (ACCOUNTKEEPER_*).
//  4. Command-line flags registered with RegisterFlags. Only flags the user
//     actually set override earlier values.
//
// # JSON schema
//
// Intervals are Go duration strings:
//
//	{
//	  "auth_server_addr": "127.0.0.1:50051",
//	  "database_path": "accounts.db",
//	  "channel_poll_interval": "2s",
//	  "oauth_client_id": "5882386c6d801776",
//	  "page_url": "https://accounts.example.com/signin?resume=...",
//	  "log_level": "debug",
//	  "otel_endpoint": "http://127.0.0.1:4318"
//	}
package config
