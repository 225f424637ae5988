// Package redis wraps the go-redis client with service configuration and a
// health check. Redis backs the dependent-role spend accounting; the service
// runs in-memory when no URL is configured.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fedbridge/internal/platform/config"
)

// Client wraps a redis connection pool.
type Client struct {
	rdb *redis.Client
}

// New parses the configured URL and opens a connection pool. The connection
// is verified with a ping so misconfiguration fails at startup, not on the
// first swap.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Unwrap exposes the underlying client for stores that need raw commands.
func (c *Client) Unwrap() *redis.Client { return c.rdb }

// Health reports whether the connection is usable.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error { return c.rdb.Close() }
