package standardcost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
)

const cacheVersionKey = "standardcost:version"

// Cache keeps current-version lookups off the database. Keys embed a global
// cache version; Bump after every ledger write invalidates everything at
// once. A nil Cache degrades to direct loads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) buildKey(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) (string, error) {
	parts := []string{"standardcost", "current", configurationID.String(), string(channel)}
	if c == nil || c.client == nil {
		return strings.Join(parts, ":"), nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", strings.Join(parts, ":"), ver), nil
}

// FetchCurrent loads the current version through the cache. Loader errors
// (including not-found) pass through uncached.
func (c *Cache) FetchCurrent(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel,
	loader func(context.Context) (*Version, error)) (*Version, error) {
	if loader == nil {
		return nil, errors.New("standardcost cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.buildKey(ctx, configurationID, channel)
	if err != nil {
		return nil, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var v Version
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}
	if err != redis.Nil {
		return nil, err
	}
	v, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return v, nil
}

// Warm populates the cache for one pair ahead of reads.
func (c *Cache) Warm(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel,
	loader func(context.Context) (*Version, error)) error {
	_, err := c.FetchCurrent(ctx, configurationID, channel, loader)
	return err
}

// Bump invalidates every cached current version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
