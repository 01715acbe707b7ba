package vault

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/trailcache"
)

// MemoryVault keeps records in process memory. It is used by tests and by
// the "memory" driver when nothing should touch the disk.
type MemoryVault struct {
	mu      sync.RWMutex
	records []trailcache.TranslationRecord
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{}
}

// Get returns the newest record stored under key.
func (v *MemoryVault) Get(ctx context.Context, key string) (trailcache.TranslationRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return trailcache.TranslationRecord{}, false, storeErr("get", "context done", err)
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	for i := len(v.records) - 1; i >= 0; i-- {
		if v.records[i].CacheKey == key {
			return v.records[i], true, nil
		}
	}
	return trailcache.TranslationRecord{}, false, nil
}

// Add appends a record. There is no uniqueness constraint.
func (v *MemoryVault) Add(ctx context.Context, rec trailcache.TranslationRecord) error {
	if err := ctx.Err(); err != nil {
		return storeErr("add", "context done", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = append(v.records, rec)
	return nil
}

// Count returns the number of stored records.
func (v *MemoryVault) Count(ctx context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records), nil
}

// Clear removes every record.
func (v *MemoryVault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = nil
	return nil
}

// Records returns a copy of all records in insertion order.
func (v *MemoryVault) Records(ctx context.Context) ([]trailcache.TranslationRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]trailcache.TranslationRecord, len(v.records))
	copy(out, v.records)
	return out, nil
}

// Close is a no-op.
func (v *MemoryVault) Close() error { return nil }

var _ Store = (*MemoryVault)(nil)
