package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
)

// KeyPrefix namespaces the catalog keys shared by the server and bookingctl.
const KeyPrefix = "youngspirits:"

const (
	packagesKey = "catalog:packages"
	addonsKey   = "catalog:addons"
)

type RedisCatalogCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCatalogCache(addr string, password string, db int, prefix string) *RedisCatalogCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCatalogCache{client: client, prefix: prefix}
}

func (c *RedisCatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCatalogCache) Close() error {
	return c.client.Close()
}

func (c *RedisCatalogCache) GetPackages(ctx context.Context) ([]domain.ServicePackage, bool, error) {
	var packages []domain.ServicePackage
	ok, err := c.get(ctx, packagesKey, &packages)
	return packages, ok, err
}

func (c *RedisCatalogCache) SetPackages(ctx context.Context, packages []domain.ServicePackage, ttl time.Duration) error {
	return c.set(ctx, packagesKey, packages, ttl)
}

func (c *RedisCatalogCache) GetAddons(ctx context.Context) ([]domain.Addon, bool, error) {
	var addons []domain.Addon
	ok, err := c.get(ctx, addonsKey, &addons)
	return addons, ok, err
}

func (c *RedisCatalogCache) SetAddons(ctx context.Context, addons []domain.Addon, ttl time.Duration) error {
	return c.set(ctx, addonsKey, addons, ttl)
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.prefix+packagesKey, c.prefix+addonsKey).Err()
}

func (c *RedisCatalogCache) get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCatalogCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}
