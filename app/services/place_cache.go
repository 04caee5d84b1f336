package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PlaceCache remembers reverse-geocoding results per rounded coordinate
type PlaceCache interface {
	Get(ctx context.Context, lat, lon float64) (string, bool, error)
	Set(ctx context.Context, lat, lon float64, place string) error
}

// placeKey rounds to four decimals, roughly eleven meters.
func placeKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// RedisPlaceCache stores places in redis with a TTL
type RedisPlaceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisPlaceCache(client *redis.Client, prefix string, ttl time.Duration) *RedisPlaceCache {
	return &RedisPlaceCache{client: client, prefix: prefix + "place:", ttl: ttl}
}

func (c *RedisPlaceCache) Get(ctx context.Context, lat, lon float64) (string, bool, error) {
	place, err := c.client.Get(ctx, c.prefix+placeKey(lat, lon)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read place cache: %w", err)
	}
	return place, true, nil
}

func (c *RedisPlaceCache) Set(ctx context.Context, lat, lon float64, place string) error {
	if err := c.client.Set(ctx, c.prefix+placeKey(lat, lon), place, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write place cache: %w", err)
	}
	return nil
}

type memoryPlace struct {
	place     string
	expiresAt time.Time
}

// defaultMemoryPlaces bounds the in-process cache
const defaultMemoryPlaces = 10000

// MemoryPlaceCache is the in-process fallback when redis is disabled
type MemoryPlaceCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]memoryPlace
}

func NewMemoryPlaceCache(ttl time.Duration) *MemoryPlaceCache {
	return &MemoryPlaceCache{ttl: ttl, maxEntries: defaultMemoryPlaces, entries: make(map[string]memoryPlace)}
}

func (c *MemoryPlaceCache) Get(ctx context.Context, lat, lon float64) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := placeKey(lat, lon)
	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if c.expired(entry, time.Now()) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.place, true, nil
}

// Set stores place. When the cache is full, expired entries are swept first and then
// the entry closest to expiry is evicted.
func (c *MemoryPlaceCache) Set(ctx context.Context, lat, lon float64, place string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := placeKey(lat, lon)
	now := time.Now()
	if _, ok := c.entries[key]; !ok && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.sweep(now)
		if len(c.entries) >= c.maxEntries {
			c.evictOldest()
		}
	}
	c.entries[key] = memoryPlace{place: place, expiresAt: now.Add(c.ttl)}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryPlaceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryPlaceCache) expired(entry memoryPlace, now time.Time) bool {
	return c.ttl > 0 && now.After(entry.expiresAt)
}

func (c *MemoryPlaceCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryPlaceCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}
