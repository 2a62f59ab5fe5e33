package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv overlays target with environment variables. Unset variables
// leave fields untouched.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
