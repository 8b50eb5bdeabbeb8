package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a small JSON read cache over Redis. A nil Cache is a no-op so the
// catalog service works without Redis configured.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at addr and verifies the connection.
func New(addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{client: client}, nil
}

// GetJSON loads the value at key into dest. Returns false on miss or error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] Error reading %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[Cache] Error decoding %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores value at key with a TTL. Errors are logged, not returned;
// the cache is never load-bearing.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Cache] Error encoding %s: %v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[Cache] Error writing %s: %v", key, err)
	}
}

// Delete drops the given keys, used to invalidate after catalog writes.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[Cache] Error invalidating %v: %v", keys, err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
