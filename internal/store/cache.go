package store

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of templates kept by NewCachedTemplates
// when size is not positive.
const DefaultCacheSize = 256

// CachedTemplates is a read-through LRU cache in front of a TemplateRepo.
// Entries are stamped with the epoch they were read at; any write bumps
// the epoch, so entries read before it are refetched.
type CachedTemplates struct {
	TemplateRepo

	cache  *lru.Cache[string, cacheEntry]
	epoch  atomic.Uint64
	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	content string
	epoch   uint64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
	Len    int    `json:"len"`
	Epoch  uint64 `json:"epoch"`
}

// NewCachedTemplates wraps inner with an LRU of the given size.
func NewCachedTemplates(inner TemplateRepo, size int) (*CachedTemplates, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create template cache: %w", err)
	}
	return &CachedTemplates{TemplateRepo: inner, cache: cache}, nil
}

func (c *CachedTemplates) Get(ctx context.Context, id string) (string, error) {
	epoch := c.epoch.Load()
	if e, ok := c.cache.Get(id); ok && e.epoch == epoch {
		c.hits.Add(1)
		return e.content, nil
	}
	c.misses.Add(1)

	content, err := c.TemplateRepo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	c.cache.Add(id, cacheEntry{content: content, epoch: epoch})
	return content, nil
}

func (c *CachedTemplates) Put(ctx context.Context, t Template) (*Template, error) {
	saved, err := c.TemplateRepo.Put(ctx, t)
	c.invalidate(t.ID)
	return saved, err
}

func (c *CachedTemplates) Delete(ctx context.Context, id string) error {
	err := c.TemplateRepo.Delete(ctx, id)
	c.invalidate(id)
	return err
}

// Invalidate drops every cached entry.
func (c *CachedTemplates) Invalidate() {
	c.epoch.Add(1)
	c.cache.Purge()
}

func (c *CachedTemplates) invalidate(id string) {
	c.epoch.Add(1)
	c.cache.Remove(id)
}

// Stats returns a snapshot of cache counters.
func (c *CachedTemplates) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.cache.Len(),
		Epoch:  c.epoch.Load(),
	}
}
