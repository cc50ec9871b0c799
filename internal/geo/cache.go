package geo

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	city string
	name string
}

type cacheEntry struct {
	point Point
	found bool
}

// CachedLocator memoizes lookups of another Locator, including misses.
// Lookup errors other than ErrNotFound are not cached.
type CachedLocator struct {
	next  Locator
	cache *lru.Cache[cacheKey, cacheEntry]
}

// NewCachedLocator wraps next with an LRU cache holding up to size entries.
func NewCachedLocator(next Locator, size int) (*CachedLocator, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create locator cache: %w", err)
	}
	return &CachedLocator{next: next, cache: cache}, nil
}

func (c *CachedLocator) Locate(ctx context.Context, city, name string) (Point, error) {
	key := cacheKey{city: city, name: name}
	if e, ok := c.cache.Get(key); ok {
		if !e.found {
			return Point{}, ErrNotFound
		}
		return e.point, nil
	}

	p, err := c.next.Locate(ctx, city, name)
	switch {
	case errors.Is(err, ErrNotFound):
		c.cache.Add(key, cacheEntry{})
		return Point{}, err
	case err != nil:
		return Point{}, err
	}
	c.cache.Add(key, cacheEntry{point: p, found: true})
	return p, nil
}

// Len reports the number of cached entries.
func (c *CachedLocator) Len() int {
	return c.cache.Len()
}
