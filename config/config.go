// Package config loads trailcache settings from the environment.
//
// A .env file in the working directory is read once before parsing. Real
// environment variables win over .env entries; CLI flags win over both.
package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when a nil pointer is provided to Load.
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

var dotenvLoaded sync.Once

// Config holds every runtime setting.
type Config struct {
	Addr         string `env:"TRAILCACHE_ADDR" envDefault:":8080"`
	Origin       string `env:"TRAILCACHE_ORIGIN" envDefault:"http://localhost:3000"`
	ManifestPath string `env:"TRAILCACHE_MANIFEST"`

	VaultDriver    string `env:"TRAILCACHE_VAULT_DRIVER" envDefault:"sqlite"`
	VaultPath      string `env:"TRAILCACHE_VAULT_PATH" envDefault:"data/vault.db"`
	ResourcePath   string `env:"TRAILCACHE_RESOURCE_PATH" envDefault:"data/resources.db"`
	RedisURL       string `env:"TRAILCACHE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisKeyPrefix string `env:"TRAILCACHE_REDIS_PREFIX" envDefault:"trailcache:"`

	Provider       string        `env:"TRAILCACHE_PROVIDER" envDefault:"mymemory"`
	ProviderURL    string        `env:"TRAILCACHE_PROVIDER_URL"`
	ProviderEmail  string        `env:"TRAILCACHE_PROVIDER_EMAIL"`
	OpenAIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel    string        `env:"TRAILCACHE_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	RequestTimeout time.Duration `env:"TRAILCACHE_REQUEST_TIMEOUT" envDefault:"10s"`

	SourceLang        string        `env:"TRAILCACHE_SOURCE_LANG" envDefault:"en"`
	RequestsPerMinute int           `env:"TRAILCACHE_RATE_LIMIT" envDefault:"60"`
	RetryCount        int           `env:"TRAILCACHE_RETRIES" envDefault:"2"`
	BreakerFailures   uint32        `env:"TRAILCACHE_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout    time.Duration `env:"TRAILCACHE_BREAKER_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"TRAILCACHE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"TRAILCACHE_LOG_FORMAT" envDefault:"text"`

	Online bool `env:"TRAILCACHE_ONLINE" envDefault:"true"`
}

// Load reads .env (once per process) and parses the environment into v.
//
// Example:
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	dotenvLoaded.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})
	return parse(v, env.Options{})
}

// LoadFrom parses an explicit variable set instead of the process environment.
func LoadFrom[T any](v *T, vars map[string]string) error {
	return parse(v, env.Options{Environment: vars})
}

func parse[T any](v *T, opts env.Options) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.ParseWithOptions(v, opts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.VaultDriver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: vault driver %q", ErrInvalidConfig, c.VaultDriver)
	}
	switch c.Provider {
	case "mymemory", "openai", "mock":
	default:
		return fmt.Errorf("%w: provider %q", ErrInvalidConfig, c.Provider)
	}
	if c.Provider == "openai" && c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", ErrInvalidConfig)
	}
	if c.RequestsPerMinute < 0 || c.RetryCount < 0 {
		return fmt.Errorf("%w: negative rate limit or retry count", ErrInvalidConfig)
	}
	return nil
}
