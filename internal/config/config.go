// Package config loads process configuration from the environment
// into a typed struct, the way a deployed goapd instance is
// configured in a container without a config file.
package config

import (
	"time"

	"github.com/caarlos0/env/v7"
)

// Config is the full set of environment-tunable settings for the
// coap-server command. Each field's env tag is the variable name a
// deployment sets; envDefault supplies a sane value when unset.
type Config struct {
	ListenAddr  string        `env:"GOAPD_LISTEN_ADDR" envDefault:":5683"`
	Workers     int           `env:"GOAPD_WORKERS" envDefault:"4"`
	ReadTimeout time.Duration `env:"GOAPD_READ_TIMEOUT" envDefault:"0s"`
	LogLevel    string        `env:"GOAPD_LOG_LEVEL" envDefault:"info"`
	LogFile     string        `env:"GOAPD_LOG_FILE" envDefault:""`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
