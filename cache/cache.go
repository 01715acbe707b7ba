// Package cache provides the volatile, per-session translation lookup tier.
//
// Entries live only in process memory and vanish on restart; the durable
// copy of every network-originated translation lives in the vault.
package cache

// TranslationCache is the interface for the volatile lookup tier.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found.
	Get(key string) (string, bool)

	// Set stores a translation in the cache.
	Set(key string, value string) error

	// Len returns the number of cached entries.
	Len() int

	// Clear drops every entry.
	Clear()
}
