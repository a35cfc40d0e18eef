// Package cache provides response caching keyed on normalized request
// signatures. It replaces ad-hoc per-function memoization with an explicit
// component that adapters receive by injection: entries are time-bounded
// and the in-memory variant is size-bounded.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache stores raw API response bodies keyed by request signature.
type Cache interface {
	// Get returns the cached value for key, or false if absent or expired.
	Get(key string) ([]byte, bool)
	// Put stores value under key, replacing any previous entry.
	Put(key string, value []byte)
}

// Key builds a normalized request signature from its parts (typically the
// HTTP method and the fully-encoded request URL).
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
