// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process-level configuration. Match configuration is
// per-room and host-controlled, not set here.
type Config struct {
	Addr            string        `env:"FLAGRUSH_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"FLAGRUSH_LOG_LEVEL" envDefault:"info"`
	LogPretty       bool          `env:"FLAGRUSH_LOG_PRETTY" envDefault:"true"`
	ShutdownTimeout time.Duration `env:"FLAGRUSH_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
