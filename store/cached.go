package store

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/reoring/contractkit/internal/log"
)

// Cached is a read-through cache in front of another DocumentStore. Writes
// and deletes go to the backing store first and then update the cache.
type Cached struct {
	next  DocumentStore
	cache *gocache.Cache
}

// NewCached wraps next. Entries expire after ttl; expired entries are swept
// every 2*ttl.
func NewCached(next DocumentStore, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: gocache.New(ttl, 2*ttl)}
}

func (c *Cached) Write(ctx context.Context, location string, data []byte) error {
	if err := c.next.Write(ctx, location, data); err != nil {
		c.cache.Delete(location)
		return err
	}
	c.cache.SetDefault(location, slices.Clone(data))
	return nil
}

func (c *Cached) Read(ctx context.Context, location string) ([]byte, error) {
	if v, ok := c.cache.Get(location); ok {
		if b, ok := v.([]byte); ok {
			log.Debug(log.CatStore, "cache hit", "location", location)
			return slices.Clone(b), nil
		}
		log.Error(log.CatStore, "wrong type in document cache", "location", location)
	}
	b, err := c.next.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(location, slices.Clone(b))
	return b, nil
}

func (c *Cached) List(ctx context.Context) ([]string, error) { return c.next.List(ctx) }

func (c *Cached) Delete(ctx context.Context, location string) error {
	c.cache.Delete(location)
	return c.next.Delete(ctx, location)
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate() { c.cache.Flush() }
