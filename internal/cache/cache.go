package cache

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SourceKey generates a cache key for an input file. Size and modification
// time are part of the key so an edited file is read again.
func SourceKey(absPath string, size int64, modTime time.Time) string {
	h := blake3.New()
	_, _ = fmt.Fprintf(h, "%s\x00%d\x00%d", absPath, size, modTime.UnixNano())
	return "cocosplit:v1:" + hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the hex blake3 digest of data
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
