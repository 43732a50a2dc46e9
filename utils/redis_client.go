package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/snackstopper/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// InitRedis creates the Redis client used for response caching. Caching stays disabled
// when no Redis host is configured.
func InitRedis(cfg config.AppConfig) *redis.Client {
	redisOnce.Do(func() {
		if cfg.RedisHost == "" {
			return
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		// Ping to surface misconfiguration early; cache calls fail soft either way.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil && Sugar != nil {
			Sugar.Warnf("redis ping failed, responses will not be cached: %v", err)
		}
	})
	return redisClient
}

// GetRedis returns the Redis client, or nil when caching is disabled.
func GetRedis() *redis.Client {
	return redisClient
}
