// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read, when present, before the process environment.
const DefaultEnvFile = ".env"

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the complete runtime configuration.
type Config struct {
	GitHubToken  string `env:"GITHUB_PERSONAL_ACCESS_TOKEN,required,notEmpty"`
	GitHubAPIURL string `env:"GITHUB_API_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`

	RequestTimeout  time.Duration `env:"GHSEARCH_REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimit       int           `env:"GHSEARCH_RATE_LIMIT" envDefault:"10"`
	RateBurst       int           `env:"GHSEARCH_RATE_BURST" envDefault:"20"`
	MaxRequestBytes int64         `env:"GHSEARCH_MAX_REQUEST_BYTES" envDefault:"1048576"`
	WebSocketAddr   string        `env:"GHSEARCH_WS_ADDR" envDefault:"127.0.0.1:8765"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads envFiles (DefaultEnvFile when none are given) and the process
// environment, with the process environment taking precedence. A missing
// default file is not an error; a missing explicit file is.
func Load(envFiles ...string) (*Config, error) {
	explicit := len(envFiles) > 0
	if !explicit {
		envFiles = []string{DefaultEnvFile}
	}

	environ := make(map[string]string)
	for _, file := range envFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}
		for k, v := range values {
			if _, seen := environ[k]; !seen {
				environ[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}

	return LoadFrom(environ)
}

// LoadFrom parses configuration from an explicit environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that parse but make no sense.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogFormat) {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", FormatText, FormatJSON, c.LogFormat))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("GHSEARCH_REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("GHSEARCH_RATE_LIMIT must not be negative, got %d", c.RateLimit))
	}
	if c.RateBurst < 0 {
		errs = append(errs, fmt.Errorf("GHSEARCH_RATE_BURST must not be negative, got %d", c.RateBurst))
	}
	if c.MaxRequestBytes < 0 {
		errs = append(errs, fmt.Errorf("GHSEARCH_MAX_REQUEST_BYTES must not be negative, got %d", c.MaxRequestBytes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// TracingEnabled reports whether spans should be exported.
func (c *Config) TracingEnabled() bool {
	return c.OTLPEndpoint != ""
}
