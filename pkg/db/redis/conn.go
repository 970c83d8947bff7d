package redis

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to the queue backend and pings it once.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	redisHost := cfg.Redis.RedisAddr
	if redisHost == "" {
		redisHost = ":6379"
	}

	opts := &redis.Options{
		Addr:         redisHost,
		Password:     cfg.Redis.RedisPassword,
		DB:           cfg.Redis.DB,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolSize:     cfg.Redis.PoolSize,
		PoolTimeout:  time.Duration(cfg.Redis.PoolTimeout) * time.Second,
	}
	if cfg.Redis.TLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	// BLPOP holds the connection for up to PopTimeout.
	if cfg.Redis.PopTimeout > 0 {
		opts.ReadTimeout = cfg.Redis.PopTimeout + 5*time.Second
	} else {
		opts.ReadTimeout = -1
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
