package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	ServerEndpointAddr *string        `env:"SERVER_ADDR"`
	RequestTimeout     *time.Duration `env:"TIMEOUT"`
	AccessToken        *string        `env:"TOKEN"`
}

// parseEnv overlays cfg with GOPHAUTH_CLIENT_* variables from environ.
func parseEnv(cfg *Config, environ []string) error {
	var e envConfig

	opts := env.Options{Prefix: "GOPHAUTH_CLIENT_", Environment: env.ToMap(environ)}
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return err
	}

	if e.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *e.ServerEndpointAddr
	}
	if e.RequestTimeout != nil {
		cfg.RequestTimeout = *e.RequestTimeout
	}
	if e.AccessToken != nil {
		cfg.AccessToken = *e.AccessToken
	}

	return nil
}
