package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadFunc reads an input file into memory
type ReadFunc func(path string) ([]byte, error)

// SourceReader reads input files through a Cache. Callers get the cached
// bytes and must decode their own copy; the bytes themselves are never
// modified.
type SourceReader struct {
	cache Cache
	read  ReadFunc
}

// NewSourceReader wraps read with c. A nil cache disables caching.
func NewSourceReader(c Cache, read ReadFunc) *SourceReader {
	if c == nil {
		c = NopCache{}
	}
	return &SourceReader{cache: c, read: read}
}

// Read returns the contents of path and whether they came from the cache
func (r *SourceReader) Read(path string) ([]byte, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, false, fmt.Errorf("stat annotations: %w", err)
	}

	key := SourceKey(abs, info.Size(), info.ModTime())
	if data, ok := r.cache.Get(key); ok {
		return data, true, nil
	}

	data, err := r.read(abs)
	if err != nil {
		return nil, false, err
	}
	if err := r.cache.Set(key, data, 0); err != nil {
		return nil, false, fmt.Errorf("cache %s: %w", path, err)
	}
	return data, false, nil
}
