package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CatalogSource fetches the generation catalogs from the backend.
type CatalogSource interface {
	Topics(ctx context.Context) ([]string, error)
	DifficultyLevels(ctx context.Context) ([]string, error)
}

// CatalogCache caches the topic and difficulty catalogs with a TTL so
// the authoring flow does not hammer the backend every time a form is
// opened. Concurrent misses for the same catalog collapse into one
// backend call.
type CatalogCache struct {
	source CatalogSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedList
}

type cachedList struct {
	values    []string
	expiresAt time.Time
}

func NewCatalogCache(source CatalogSource, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedList),
	}
}

func (c *CatalogCache) Topics(ctx context.Context) ([]string, error) {
	return c.fetch(ctx, "topics", c.source.Topics)
}

func (c *CatalogCache) DifficultyLevels(ctx context.Context) ([]string, error) {
	return c.fetch(ctx, "levels", c.source.DifficultyLevels)
}

func (c *CatalogCache) fetch(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.values, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.values, nil
		}
		c.mu.RUnlock()

		values, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedList{values: values, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter so both catalogs don't expire in lockstep
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
