package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the gophauth CLI.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	AccessToken        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.AccessToken = ""
}

// Load builds a Config from args (without the program name) and returns the
// remaining positional arguments.
func Load(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, os.Environ()); err != nil {
		return nil, nil, fmt.Errorf("env config: %w", err)
	}

	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, fmt.Errorf("flags: %w", err)
	}

	return cfg, rest, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, []string, error) {
	return Load(os.Args[1:])
}
