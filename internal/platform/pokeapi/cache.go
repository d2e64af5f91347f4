package pokeapi

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache stores raw response bodies keyed by request URL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
}

// MemoryCache is a bounded in-process Cache.
type MemoryCache struct {
	entries *lru.Cache[string, []byte]
}

func NewMemoryCache(size int) (*MemoryCache, error) {
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: entries}, nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	body, ok := c.entries.Get(key)
	return body, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, body []byte) error {
	c.entries.Add(key, body)
	return nil
}

// Len is the number of cached bodies.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}
