package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a small in-process TTL cache keyed by string.
type Cache[T any] struct {
	store *gocache.Cache
}

func New[T any](ttl, cleanupInterval time.Duration) *Cache[T] {
	return &Cache[T]{store: gocache.New(ttl, cleanupInterval)}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (c *Cache[T]) Set(key string, value T) {
	c.store.SetDefault(key, value)
}

func (c *Cache[T]) Delete(key string) {
	c.store.Delete(key)
}

func (c *Cache[T]) Len() int {
	return c.store.ItemCount()
}
