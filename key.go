package trailcache

import (
	"crypto/sha256"
	"encoding/hex"
)

// CacheKey builds the natural identity of a translation.
// The key is a plain concatenation; uniqueness follows from construction.
func CacheKey(fromLang, toLang, text string) string {
	return fromLang + toLang + text
}

// HashKey returns the SHA-256 hex digest of a cache key.
// Stores with key length limits (Redis key names, file names) use it.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
