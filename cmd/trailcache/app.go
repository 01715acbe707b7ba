package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/trailcache"
	"github.com/ZaguanLabs/trailcache/cache"
	"github.com/ZaguanLabs/trailcache/config"
	"github.com/ZaguanLabs/trailcache/connectivity"
	"github.com/ZaguanLabs/trailcache/intercept"
	"github.com/ZaguanLabs/trailcache/logger"
	"github.com/ZaguanLabs/trailcache/provider"
	"github.com/ZaguanLabs/trailcache/vault"
)

// app carries the loaded configuration and the resources opened by a
// command so they can be closed once it returns.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg config.Config
	log *slog.Logger

	closers []func() error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, log: logger.Discard()}
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("closing resource failed", logger.Error(err))
		}
	}
	a.closers = nil
}

func (a *app) setupLogger() error {
	level, err := logger.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(a.cfg.LogFormat)),
		logger.WithOutput(a.stderr),
		logger.WithAttr(logger.Component("cli")),
	)
	return nil
}

func (a *app) oracle() *connectivity.Oracle {
	return connectivity.New(a.cfg.Online, connectivity.WithLogger(a.log))
}

func (a *app) openVault() (vault.Store, error) {
	store, err := vault.Open(vault.Options{
		Driver:    a.cfg.VaultDriver,
		Path:      a.cfg.VaultPath,
		RedisURL:  a.cfg.RedisURL,
		KeyPrefix: a.cfg.RedisKeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s vault: %w", a.cfg.VaultDriver, err)
	}
	a.onClose(store.Close)
	return store, nil
}

// provider builds the configured backend and wraps it, innermost first,
// in the rate limiter, the retry loop and the circuit breaker.
func (a *app) provider() trailcache.Provider {
	var p trailcache.Provider
	switch a.cfg.Provider {
	case "mock":
		return provider.NewMockProvider()
	case "openai":
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  a.cfg.OpenAIKey,
			Model:   a.cfg.OpenAIModel,
			BaseURL: a.cfg.ProviderURL,
		})
	default:
		p = provider.NewRESTProvider(provider.RESTConfig{
			BaseURL: a.cfg.ProviderURL,
			Email:   a.cfg.ProviderEmail,
			Timeout: a.cfg.RequestTimeout,
		})
	}

	if a.cfg.RequestsPerMinute > 0 {
		p = trailcache.NewRateLimitedProvider(p, trailcache.RateLimitConfig{
			RequestsPerMinute: a.cfg.RequestsPerMinute,
		})
	}
	if a.cfg.RetryCount > 0 {
		rc := trailcache.DefaultRetryConfig()
		rc.MaxRetries = a.cfg.RetryCount
		rc.OnRetry = func(attempt int, err error, delay time.Duration) {
			a.log.Debug("retrying provider call",
				slog.Int("attempt", attempt), slog.Duration("delay", delay), logger.Error(err))
		}
		p = trailcache.NewRetryableProvider(p, rc)
	}
	return trailcache.NewBreakerProvider(p, trailcache.BreakerConfig{
		FailureThreshold: a.cfg.BreakerFailures,
		OpenTimeout:      a.cfg.BreakerTimeout,
		Logger:           a.log,
	})
}

func (a *app) resolver(store vault.Store, conn trailcache.Connectivity) *trailcache.Resolver {
	return trailcache.NewResolver(a.provider(),
		trailcache.WithVolatileCache(cache.NewInMemoryCache()),
		trailcache.WithVault(store),
		trailcache.WithConnectivity(conn),
		trailcache.WithSourceLang(a.cfg.SourceLang),
		trailcache.WithLogger(a.log),
	)
}

// manifest loads the manifest file, or the built-in one pointed at the
// configured origin.
func (a *app) manifest() (intercept.Manifest, error) {
	if a.cfg.ManifestPath != "" {
		return intercept.LoadManifest(a.cfg.ManifestPath)
	}
	m := intercept.DefaultManifest()
	if a.cfg.Origin != "" {
		m.Origin = a.cfg.Origin
	}
	return m, nil
}

func (a *app) resourceStore() (intercept.ResourceStore, error) {
	if a.cfg.VaultDriver == vault.DriverMemory {
		return intercept.NewMemoryStore(), nil
	}
	s, err := intercept.NewSQLiteStore(a.cfg.ResourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening resource store: %w", err)
	}
	a.onClose(s.Close)
	return s, nil
}

func (a *app) interceptor(conn trailcache.Connectivity) (*intercept.Interceptor, error) {
	m, err := a.manifest()
	if err != nil {
		return nil, err
	}
	store, err := a.resourceStore()
	if err != nil {
		return nil, err
	}
	i, err := intercept.New(m,
		intercept.WithStore(store),
		intercept.WithConnectivity(conn),
		intercept.WithLogger(a.log),
	)
	if err != nil {
		return nil, errors.Join(errors.New("building interceptor"), err)
	}
	return i, nil
}
