// Package cache provides the Redis-backed role cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "result-processing:role:"

// DefaultTTL is used when a non-positive TTL is supplied.
const DefaultTTL = time.Minute

// New creates a Redis client and checks the connection.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}

	return client, nil
}

// RoleCache stores the role of each known user by email.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoleCache wraps client. Entries expire after ttl.
func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RoleCache{client: client, ttl: ttl}
}

// Get returns the cached role for email. The bool is false on a miss.
func (c *RoleCache) Get(ctx context.Context, email string) (domain.Role, bool, error) {
	raw, err := c.client.Get(ctx, key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get role: %w", err)
	}

	role, err := domain.ParseRole(raw)
	if err != nil {
		// Unknown values are treated as a miss so the store is consulted.
		return "", false, nil
	}
	return role, true, nil
}

// Set caches role for email.
func (c *RoleCache) Set(ctx context.Context, email string, role domain.Role) error {
	if err := c.client.Set(ctx, key(email), string(role), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set role: %w", err)
	}
	return nil
}

// Invalidate drops any cached role for email.
func (c *RoleCache) Invalidate(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate role: %w", err)
	}
	return nil
}

func key(email string) string {
	return keyPrefix + email
}
