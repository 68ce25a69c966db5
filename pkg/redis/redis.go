// Package redis wires the shared Redis client.
package redis

import (
	"github.com/postloom/postloom/internal/config"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// New builds a Redis client from application config. Connectivity is not
// probed at startup; consumers are expected to fail open.
func New(cfg config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

var Module = fx.Module("redis", fx.Provide(New))
