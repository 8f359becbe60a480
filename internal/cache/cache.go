package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores citation verification results so repeated passes over the
// same store do not re-check every URL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a citation URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "hrec:v1:" + hex.EncodeToString(hash[:])
}
