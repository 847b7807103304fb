package config

import (
	"flag"
	"io"
)

// parseFlags applies -a, -r and -t to cfg and returns the positional
// arguments. -c/-config are accepted and ignored here since parseJson has
// already consumed them.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("gophauth-client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.DurationVar(&cfg.RequestTimeout, "r", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")

	var ignored string
	fs.StringVar(&ignored, "c", "", "path to config file")
	fs.StringVar(&ignored, "config", "", "path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return fs.Args(), nil
}
