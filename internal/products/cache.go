package products

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listCacheKey = "products:list"
	listCacheTTL = 5 * time.Minute
)

// ListCache keeps the rendered product listing in Redis so every
// listing page serves the same snapshot. Writers invalidate it; the
// next read repopulates. A nil client degrades to always-miss.
type ListCache struct {
	rdb *redis.Client
}

func NewListCache(rdb *redis.Client) *ListCache {
	return &ListCache{rdb: rdb}
}

func (c *ListCache) Get(ctx context.Context) ([]Product, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, listCacheKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[products] cache read: %v", err)
		return nil, false
	}

	var out []Product
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *ListCache) Set(ctx context.Context, list []Product) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, listCacheKey, data, listCacheTTL).Err(); err != nil {
		log.Printf("[products] cache write: %v", err)
	}
}

// Invalidate drops the cached listing. Called after every write so
// listing pages revalidate.
func (c *ListCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, listCacheKey).Err(); err != nil {
		log.Printf("[products] cache invalidate: %v", err)
	}
}
