package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listKey      = "catalog:products:list:default"
	detailPrefix = "catalog:products:id:"
)

// Cache stores JSON-encoded catalog payloads in Redis. A nil Cache (or one
// without a client) is a no-op so the service works without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil || key == "" {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	if c == nil || c.client == nil || key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	ttl := c.ttl
	if ttl <= 0 {
		ttl = time.Minute
	}
	_ = c.client.Set(ctx, key, data, ttl).Err()
}

// invalidate drops the default listing and, when id is non-empty, the detail
// entry for that product. Called after every write.
func (c *Cache) invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	keys := []string{listKey}
	if id != "" {
		keys = append(keys, detailPrefix+id)
	}
	_ = c.client.Del(ctx, keys...).Err()
}
