package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ClientOptions holds the configuration values for the portal client.
type ClientOptions struct {
	// APIURL is the base URL every API path is appended to.
	APIURL string `json:"api_url"`
	// StateFile persists the session token between runs.
	StateFile string `json:"state_file"`
	// StateKey, when set, seals the stored token with AES-GCM.
	StateKey string `json:"state_key"`
	// CAFile is an optional CA bundle trusted for HTTPS.
	CAFile string `json:"ca_file"`
	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`
	// LogFile receives client logs; empty means stderr.
	LogFile string `json:"log_file"`
}

// DefaultClientOptions returns the built-in client defaults.
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		APIURL:    "http://localhost:8000/api",
		StateFile: "portal_state.json",
		LogLevel:  "Warn",
	}
}

// ParseClient layers defaults, the JSON file at path (when it exists) and
// PORTAL_* environment variables. Command-line flags are applied on top
// by the caller.
func ParseClient(path string) (*ClientOptions, error) {
	options := DefaultClientOptions()

	if env := os.Getenv("PORTAL_CONFIG"); env != "" {
		path = env
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("error while reading config file: %w", err)
		}
	}

	for env, dst := range map[string]*string{
		"PORTAL_API_URL":    &options.APIURL,
		"PORTAL_STATE_FILE": &options.StateFile,
		"PORTAL_STATE_KEY":  &options.StateKey,
		"PORTAL_CA":         &options.CAFile,
		"PORTAL_LOG_LEVEL":  &options.LogLevel,
		"PORTAL_LOG_FILE":   &options.LogFile,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	return options, nil
}
