package utils

import (
	"context"
	"log"
	"time"

	"ecocycle/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (pending lists, earnings summaries).
	CacheClient *redis.Client
)

// Cache key prefixes and TTLs.
const (
	PendingCacheKey  = "requests:pending"
	EarningsCachePfx = "earnings:"
	PendingCacheTTL  = 30 * time.Second
	EarningsCacheTTL = 1 * time.Minute
)

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}
