package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"plantshop/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyProduct = "plantshop:product:%d"

// ProductCache is a read-through cache for product lookups.
type ProductCache interface {
	Get(ctx context.Context, id uint) (*models.Product, bool)
	Set(ctx context.Context, product *models.Product) error
	Invalidate(ctx context.Context, ids ...uint) error
}

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisProductCache stores JSON-encoded products in Redis.
type RedisProductCache struct {
	store cmdable
	ttl   time.Duration
}

// NewRedisProductCache wraps a go-redis client.
func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return newRedisProductCache(client, ttl)
}

func newRedisProductCache(store cmdable, ttl time.Duration) *RedisProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProductCache{store: store, ttl: ttl}
}

func ProductKey(id uint) string {
	return fmt.Sprintf(keyProduct, id)
}

// Get returns the cached product; any miss or decode problem is reported as a miss.
func (c *RedisProductCache) Get(ctx context.Context, id uint) (*models.Product, bool) {
	raw, err := c.store.Get(ctx, ProductKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, false
	}
	return &product, true
}

func (c *RedisProductCache) Set(ctx context.Context, product *models.Product) error {
	if product == nil {
		return errors.New("product required")
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product %d: %w", product.ID, err)
	}
	if err := c.store.Set(ctx, ProductKey(product.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache product %d: %w", product.ID, err)
	}
	return nil
}

func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ProductKey(id))
	}
	if err := c.store.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate products: %w", err)
	}
	return nil
}

// NopProductCache never stores anything.
type NopProductCache struct{}

func (NopProductCache) Get(context.Context, uint) (*models.Product, bool) { return nil, false }

func (NopProductCache) Set(context.Context, *models.Product) error { return nil }

func (NopProductCache) Invalidate(context.Context, ...uint) error { return nil }
