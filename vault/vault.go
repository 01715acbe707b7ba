// Package vault provides persistent translation stores.
//
// Every store satisfies trailcache.Vault: records are appended, never
// mutated, and removed only by a full Clear. A missing key is reported as
// (zero, false, nil); any error is a storage failure wrapped in
// *trailcache.StoreError so callers can degrade to volatile-only caching.
package vault

import (
	"context"
	"fmt"

	"github.com/ZaguanLabs/trailcache"
)

// Lister is implemented by stores that can enumerate their records.
// Export relies on it.
type Lister interface {
	Records(ctx context.Context) ([]trailcache.TranslationRecord, error)
}

// Store is a vault that can also be enumerated and closed.
type Store interface {
	trailcache.Vault
	Lister
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a store for Open.
type Options struct {
	Driver    string // sqlite, redis or memory
	Path      string // SQLite database file
	RedisURL  string // Redis connection URL
	KeyPrefix string // Redis key prefix
}

// Open builds the store named by opts.Driver.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLiteVault(opts.Path)
	case DriverRedis:
		return NewRedisVault(RedisConfig{URL: opts.RedisURL, KeyPrefix: opts.KeyPrefix})
	case DriverMemory:
		return NewMemoryVault(), nil
	default:
		return nil, fmt.Errorf("unknown vault driver %q", opts.Driver)
	}
}

func storeErr(op, msg string, cause error) error {
	return &trailcache.StoreError{Op: op, Message: msg, Cause: cause}
}
