package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "GOPHAUTH_"

// envConfig holds raw environment values. Unset variables leave the
// pointer nil so earlier layers are kept.
type envConfig struct {
	EndpointAddrHTTP      *string        `env:"HTTP_ADDR"`
	EndpointAddrGRPC      *string        `env:"GRPC_ADDR"`
	SecretKey             *string        `env:"SECRET_KEY"`
	TokenValidityDuration *time.Duration `env:"TOKEN_TTL"`
	BcryptCost            *int           `env:"BCRYPT_COST"`
	LogFormat             *string        `env:"LOG_FORMAT"`
	LogLevel              *string        `env:"LOG_LEVEL"`
	ShutdownTimeout       *time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// parseEnv overlays GOPHAUTH_* variables onto config. Values from the
// dotenv file at dotenvPath are used only where the real environment has no
// value. A missing dotenv file is not an error.
func parseEnv(config *Config, dotenvPath string) error {
	environ := env.ToMap(os.Environ())

	if dotenvPath != "" {
		fileVars, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		for k, v := range fileVars {
			if _, ok := environ[k]; !ok {
				environ[k] = v
			}
		}
	}

	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: envPrefix, Environment: environ}); err != nil {
		return err
	}

	setIf(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setIf(&config.EndpointAddrGRPC, e.EndpointAddrGRPC)
	setIf(&config.SecretKey, e.SecretKey)
	setIf(&config.TokenValidityDuration, e.TokenValidityDuration)
	setIf(&config.BcryptCost, e.BcryptCost)
	setIf(&config.LogFormat, e.LogFormat)
	setIf(&config.LogLevel, e.LogLevel)
	setIf(&config.ShutdownTimeout, e.ShutdownTimeout)

	return nil
}
