// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP endpoint.
//   - EndpointAddrGRPC: bind address for the gRPC endpoint.
//   - SecretKey: HMAC secret for signing JWTs (HS256). No default; must be supplied.
//   - TokenValidityDuration: lifetime of issued tokens.
//   - BcryptCost: bcrypt work factor used for new password hashes.
//   - LogFormat / LogLevel: slog handler ("json" or "text") and minimum level.
//   - ShutdownTimeout: grace period for in-flight requests on SIGINT/SIGTERM.
type Config struct {
	EndpointAddrHTTP      string
	EndpointAddrGRPC      string
	SecretKey             string
	TokenValidityDuration time.Duration
	BcryptCost            int
	LogFormat             string
	LogLevel              string
	ShutdownTimeout       time.Duration
}

// LoadDefaults populates Config with development defaults.
// SecretKey is deliberately left empty.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.SecretKey = ""
	c.TokenValidityDuration = time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.ShutdownTimeout = 10 * time.Second
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.SecretKey) == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.TokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("token validity must be positive, got %s", c.TokenValidityDuration))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.EndpointAddrHTTP == "" && c.EndpointAddrGRPC == "" {
		errs = append(errs, errors.New("at least one of the HTTP or gRPC addresses must be set"))
	}

	return errors.Join(errs...)
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional JSON file, the environment (including an optional .env file) and
// finally command-line flags. The result is validated.
func Load(args []string, dotenvPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, dotenvPath); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadConfig is Load over the process arguments and ./.env.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], ".env")
}
