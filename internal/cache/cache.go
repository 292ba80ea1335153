// Package cache keeps encoded backend snapshots in memory and on disk so
// repeated views of a claim do not refetch it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// keyVersion changes whenever the encoding of cached snapshots does
const keyVersion = "claimview:v1:"

// Cache stores snapshot bytes by key. Implementations copy values on the way
// in and out, so callers may reuse their buffers. A ttl of 0 means the
// implementation's default lifetime.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a fixed-length key from its parts, e.g. ("facts", "CLM-1").
// Parts are NUL-separated before hashing so ("a", "bc") and ("ab", "c") differ.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyVersion + hex.EncodeToString(hash[:])
}
