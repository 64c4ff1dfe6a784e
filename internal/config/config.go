// Package config provides functionality for managing configuration options
// for the portal server and client using command-line flags, a JSON file
// and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Duration is a time.Duration read from JSON as "30m" style strings.
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d.Duration = v
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return errors.New("duration must be a string like \"30m\" or a number of seconds")
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the postgres connection string. Empty selects the
	// in-memory store seeded with demo data.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// SecretKey signs access tokens.
	SecretKey string `json:"secret_key"`

	// TokenTTL is the lifetime of an access token.
	TokenTTL Duration `json:"token_ttl"`

	// RedisAddr enables the redis revocation list when set.
	RedisAddr string `json:"redis_addr"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`
}

// DefaultTokenTTL is the access token lifetime when none is configured.
const DefaultTokenTTL = 30 * time.Minute

// Parse reads server options from args (without the program name), an
// optional .env file, the JSON config file and the environment, in that
// order of increasing precedence for the file and environment.
func Parse(args []string) (*Options, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	options := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8000", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.SecretKey, "secret", "", "token signing secret")
	fs.DurationVar(&options.TokenTTL.Duration, "ttl", DefaultTokenTTL, "access token lifetime")
	fs.StringVar(&options.RedisAddr, "redis", "", "redis address for the revocation list")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to server certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to server key")
	fs.StringVar(&options.LogLevel, "log-level", "Info", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		options.SecretKey = secret
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		options.RedisAddr = redisAddr
	}

	if options.TokenTTL.Duration <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", options.TokenTTL.Duration)
	}
	return options, nil
}
