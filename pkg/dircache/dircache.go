// Package dircache caches parsed directories keyed by (fieldspace id,
// schema hash), so a caller that repeatedly reads records of the same
// schema can skip re-parsing the directory bytes. It is an external
// collaborator: the core codec never looks at it and works unchanged
// whether or not a cache is in front of it.
package dircache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/streamforge/imprint/pkg/directory"
)

// Key identifies a directory by the two fields a header always carries.
type Key struct {
	FieldspaceID uint32
	SchemaHash   uint32
}

// Cache is a fixed-capacity, thread-safe LRU cache of parsed directories.
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	lru *lru.Cache[Key, directory.Directory]

	hits   uint64
	misses uint64
}

// New returns a Cache holding at most capacity entries, evicting the
// least-recently-used directory once full.
func New(capacity int) (*Cache, error) {
	l, err := lru.New[Key, directory.Directory](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached directory for key, if present. The returned
// Directory borrows its backing bytes from whatever buffer Put was called
// with; callers must not mutate or free that buffer while the entry may
// still be cached.
func (c *Cache) Get(key Key) (directory.Directory, bool) {
	d, ok := c.lru.Get(key)
	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	return d, ok
}

// Put records dir as the parsed directory for key, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *Cache) Put(key Key, dir directory.Directory) {
	c.lru.Add(key, dir)
}

// Len returns the number of directories currently cached.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge removes every cached directory.
func (c *Cache) Purge() { c.lru.Purge() }

// Stats reports cumulative hit and miss counts since the Cache was
// created.
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}
