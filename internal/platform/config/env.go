// Package config holds process configuration helpers shared by commands.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by this module.
const EnvPrefix = "WEAR_TILES_"

// ParseEnv loads configuration from WEAR_TILES_-prefixed environment variables.
// Struct tags name the variable without the prefix.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
