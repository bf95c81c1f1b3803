package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quillblog/quill/config"
)

var redisClient *redis.Client

// InitRedis connects the page-cache Redis client. It is a no-op when caching
// is disabled or no host is configured; an unreachable server is logged and
// caching stays off rather than failing the boot.
func InitRedis(cfg config.AppConfig) {
	if !cfg.CacheEnabled || cfg.RedisHost == "" {
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("redis unreachable, page cache disabled: %v", err)
		}
		return
	}
	redisClient = client
}

// GetRedis returns the initialized Redis client, or nil when caching is off;
// callers must treat a nil client as a cache miss.
func GetRedis() *redis.Client {
	return redisClient
}
