// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/comalice/eventgrid/internal/primitives"
)

// EnvPrefix prefixes every engine environment variable.
const EnvPrefix = "EVENTGRID_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvPrefix loads configuration from environment variables that carry
// prefix ahead of each field's env tag.
func ParseEnvPrefix(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// EngineFromEnv overlays EVENTGRID_* variables on base and validates the
// result. Unset variables keep base's values.
func EngineFromEnv(base primitives.Config) (primitives.Config, error) {
	cfg := base
	if err := ParseEnvPrefix(&cfg, EnvPrefix); err != nil {
		return primitives.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return primitives.Config{}, fmt.Errorf("config validation after env: %w", err)
	}
	return cfg, nil
}
