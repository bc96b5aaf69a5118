// Package cache stores fetched source photos so repeated launches do not hit
// the network. Values are opaque bytes keyed by string.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte store with per-entry expiry. A ttl of zero means the entry
// does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Hash computes a SHA-256 hash of data as 64 hex characters.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ImageKey is the cache key for the source photo at url.
func ImageKey(url string) string {
	return "image:" + url
}
