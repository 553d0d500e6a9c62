// Package cachemem is the in-memory CVE report cache. Population is
// last-writer-wins; fetches are idempotent, so racing writers are fine.
package cachemem

import (
	"context"
	"sync"
	"time"

	"sc3/internal/domain"
)

type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	cves      []domain.CVE
	expiresAt time.Time
	hasExpiry bool
}

func New() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(ctx context.Context, key string) ([]domain.CVE, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if entry.hasExpiry && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	cves := make([]domain.CVE, len(entry.cves))
	copy(cves, entry.cves)
	return cves, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, cves []domain.CVE, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	stored := make([]domain.CVE, len(cves))
	copy(stored, cves)

	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{cves: stored}
	if ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}
