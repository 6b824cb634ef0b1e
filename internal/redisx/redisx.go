// Package redisx opens the Redis client backing the settings cache and the rate limiter.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cardvault-api/internal/config"
)

// Client is an alias for a Redis client
type Client = redis.Client

// Open connects and pings Redis. It returns a nil client when REDIS_ADDR is empty.
func Open(cfg *config.Config) (*Client, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, func() {}, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, func() { _ = rdb.Close() }, nil
}
