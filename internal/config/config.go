// Package config resolves engine defaults from the environment for the CLI.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config carries the environment-tunable defaults. All fields have working
// zero-config values.
type Config struct {
	CacheBudget     int           `env:"DOCGEN_CACHE_BUDGET" envDefault:"4194304"`
	CacheTTL        time.Duration `env:"DOCGEN_CACHE_TTL" envDefault:"30m"`
	CachePolicy     string        `env:"DOCGEN_CACHE_POLICY" envDefault:"lru"`
	CleanupInterval time.Duration `env:"DOCGEN_CLEANUP_INTERVAL" envDefault:"1m"`
	LoadTimeout     time.Duration `env:"DOCGEN_LOAD_TIMEOUT" envDefault:"10s"`
	Strict          bool          `env:"DOCGEN_STRICT" envDefault:"false"`
	Debug           bool          `env:"DOCGEN_DEBUG" envDefault:"false"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
