// Package sitesettings is a TTL read-through cache over the persisted
// site settings table. Reads are served from an in-memory snapshot that is
// refreshed in bulk once stale; typed getters coerce values and fall back
// to the caller's default instead of failing.
package sitesettings

import (
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iommarket/marketplace/app/repository"
)

// DefaultTTL bounds how stale a cached read may be.
const DefaultTTL = 60 * time.Second

// Cache is constructed once at process start and shared by handlers.
type Cache struct {
	repo repository.SettingRepository
	ttl  time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
}

// NewCache creates a settings cache over the given repository. A zero ttl
// selects DefaultTTL.
func NewCache(repo repository.SettingRepository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Invalidate drops the snapshot so the next read hits the database.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.values = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

// Get returns the raw stored value for a key and whether it exists.
func (c *Cache) Get(key string) (string, bool) {
	values := c.snapshot()
	val, ok := values[key]
	return val, ok
}

// GetString returns the stored value, or the fallback when absent.
func (c *Cache) GetString(key, fallback string) string {
	if val, ok := c.Get(key); ok {
		return val
	}
	return fallback
}

// GetNumber parses the stored value as a number. Parse failures return the
// fallback, never a NaN or an error.
func (c *Cache) GetNumber(key string, fallback float64) float64 {
	val, ok := c.Get(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return fallback
	}
	return n
}

// GetInt is GetNumber truncated to an integer.
func (c *Cache) GetInt(key string, fallback int) int {
	return int(c.GetNumber(key, float64(fallback)))
}

// GetBool interprets the stored value as a boolean ("true"/"false"/"1"/"0").
func (c *Cache) GetBool(key string, fallback bool) bool {
	val, ok := c.Get(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return b
}

// snapshot returns the current value map, refreshing it first when the TTL
// has lapsed. The map is replaced wholesale, never mutated in place, so
// concurrent readers always see a fully-populated snapshot.
func (c *Cache) snapshot() map[string]string {
	c.mu.RLock()
	values, loadedAt := c.values, c.loadedAt
	c.mu.RUnlock()

	if values != nil && c.now().Sub(loadedAt) < c.ttl {
		return values
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if c.values != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.values
	}

	rows, err := c.repo.GetAll()
	if err != nil {
		log.Printf("sitesettings: refresh failed, serving stale snapshot: %v", err)
		if c.values != nil {
			return c.values
		}
		return map[string]string{}
	}

	fresh := make(map[string]string, len(rows))
	for _, row := range rows {
		fresh[row.Key] = row.Value
	}
	c.values = fresh
	c.loadedAt = c.now()
	return fresh
}
