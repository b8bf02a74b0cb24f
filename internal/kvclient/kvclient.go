// Package kvclient builds the single, multiplexed Redis connection shared
// by the lock store and the artifact index.
package kvclient

import (
	"fmt"

	"github.com/cuemby/articlesync/internal/config"
	"github.com/redis/go-redis/v9"
)

// New builds a *redis.Client from the daemon's Redis settings. The
// client pools and multiplexes connections internally; callers should
// construct one per process and share it, not one per tick.
func New(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
