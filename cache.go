package main

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const summaryCacheTTL = time.Minute

// generationCache is a go-cache with a counter per key. invalidate bumps the
// counter, and a fill whose fetch overlapped a bump is not stored.
type generationCache struct {
	mu    sync.Mutex
	items *cache.Cache
}

func newGenerationCache(ttl time.Duration) *generationCache {
	return &generationCache{items: cache.New(ttl, 10*time.Minute)}
}

func generationKey(key string) string { return key + "#gen" }

// generation must be called with mu held. Counters never expire, so a value
// is never reused for the same key.
func (gc *generationCache) generation(key string) int {
	if v, found := gc.items.Get(generationKey(key)); found {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

func (gc *generationCache) invalidate(key string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	gk := generationKey(key)
	if err := gc.items.Add(gk, 1, cache.NoExpiration); err != nil {
		if _, err := gc.items.IncrementInt(gk, 1); err != nil {
			gc.items.Set(gk, gc.generation(key)+1, cache.NoExpiration)
		}
	}
	gc.items.Delete(key)
}

// getCachedData is a read-through helper: fetchFunc runs only on a miss.
func getCachedData[T any](gc *generationCache, key string, fetchFunc func() (T, error)) (T, error) {
	gc.mu.Lock()
	data, found := gc.items.Get(key)
	gen := gc.generation(key)
	gc.mu.Unlock()

	if found {
		if v, ok := data.(T); ok {
			return v, nil
		}
	}

	v, err := fetchFunc()
	if err != nil {
		var zero T
		return zero, err
	}

	gc.mu.Lock()
	if gc.generation(key) == gen {
		gc.items.Set(key, v, cache.DefaultExpiration)
	}
	gc.mu.Unlock()
	return v, nil
}

func summaryCacheKey(userID string) string { return "summary:" + userID }

// invalidateSummary must follow every write to a user's applications.
func (s *server) invalidateSummary(userID string) {
	s.summaries.invalidate(summaryCacheKey(userID))
}
