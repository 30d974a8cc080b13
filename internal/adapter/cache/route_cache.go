package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "portunus/internal/domain/route"
)

// RouteCache caches routes by ID and by hostname.
type RouteCache interface {
	// GetByID returns nil on a cache miss.
	GetByID(ctx context.Context, id int64) (*domain.Route, error)
	// GetByHostname returns nil on a cache miss.
	GetByHostname(ctx context.Context, hostname string) (*domain.Route, error)
	// Set stores the route under both of its keys.
	Set(ctx context.Context, route *domain.Route) error
	// Invalidate drops the id key and every given hostname key.
	Invalidate(ctx context.Context, id int64, hostnames ...string) error
}

// RedisRouteCache implements RouteCache on Redis.
type RedisRouteCache struct {
	store jsonStore
}

// NewRedisRouteCache creates a new Redis-backed route cache.
func NewRedisRouteCache(client redis.Cmdable, ttl time.Duration, log *zap.Logger) *RedisRouteCache {
	return &RedisRouteCache{store: jsonStore{client: client, ttl: ttl, log: log}}
}

// RouteIDKey is the Redis key of a route ID.
func RouteIDKey(id int64) string {
	return fmt.Sprintf("route:id:%d", id)
}

// RouteHostKey is the Redis key of a route hostname.
func RouteHostKey(hostname string) string {
	return "route:host:" + hostname
}

// GetByID retrieves a route from Redis by ID.
func (c *RedisRouteCache) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	return c.get(ctx, RouteIDKey(id))
}

// GetByHostname retrieves a route from Redis by hostname.
func (c *RedisRouteCache) GetByHostname(ctx context.Context, hostname string) (*domain.Route, error) {
	return c.get(ctx, RouteHostKey(hostname))
}

func (c *RedisRouteCache) get(ctx context.Context, key string) (*domain.Route, error) {
	var r domain.Route
	found, err := c.store.load(ctx, key, &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

// Set stores a route in Redis with TTL.
func (c *RedisRouteCache) Set(ctx context.Context, route *domain.Route) error {
	if route == nil {
		return errors.New("cannot cache nil route")
	}
	return c.store.store(ctx, route, RouteIDKey(route.ID), RouteHostKey(route.Hostname))
}

// Invalidate removes a route's cached entries.
func (c *RedisRouteCache) Invalidate(ctx context.Context, id int64, hostnames ...string) error {
	keys := []string{RouteIDKey(id)}
	for _, h := range hostnames {
		if h != "" {
			keys = append(keys, RouteHostKey(h))
		}
	}
	return c.store.remove(ctx, keys...)
}
