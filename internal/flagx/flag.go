// Package flagx locates the JSON config file before the rest of the
// configuration is applied.
package flagx

import (
	"os"

	"github.com/spf13/pflag"
)

const (
	// ConfigFlag is the long name of the config file flag.
	ConfigFlag = "config"
	// ConfigEnv names the environment variable consulted when the flag is
	// not set.
	ConfigEnv = "ACCOUNTKEEPER_CONFIG"
)

// JSONConfigPath returns the config file path given with --config/-c, or
// from ConfigEnv. It returns an empty string when neither is set. fs may be
// nil or lack the flag.
func JSONConfigPath(fs *pflag.FlagSet) string {
	if fs != nil {
		if f := fs.Lookup(ConfigFlag); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv(ConfigEnv)
}
