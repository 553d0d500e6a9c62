// Package cacheredis backs the CVE report cache with Redis so several
// engine instances share one freshness window.
package cacheredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sc3/internal/domain"
)

const keyPrefix = "sc3:cve:"

type Cache struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Cache, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{client: client}, nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]domain.CVE, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	var cves []domain.CVE
	if err := json.Unmarshal(raw, &cves); err != nil {
		return nil, false, fmt.Errorf("decode cached cves for %q: %w", key, err)
	}
	return cves, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, cves []domain.CVE, ttl time.Duration) error {
	raw, err := json.Marshal(cves)
	if err != nil {
		return fmt.Errorf("encode cves for %q: %w", key, err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
