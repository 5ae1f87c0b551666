// Package config loads env-tagged configuration structs. Every service
// setting, including the store backend selection, comes in through the
// environment; there are no config files.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct, which
// declares its mappings with `env` tags:
//
//	type Config struct {
//	    HTTPPort     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
