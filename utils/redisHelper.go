package utils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

// CacheKey builds "<prefix>:<id>" keys.
func CacheKey(prefix string, id any) string {
	return prefix + ":" + fmt.Sprint(id)
}

// StoreRedis caches obj under prefix:id for the configured lifespan.
func StoreRedis(ctx context.Context, prefix string, id any, obj any) error {
	return config.SetRedisObject(ctx, CacheKey(prefix, id), obj, GetCacheLifespan())
}

// RetrieveRedis returns nil (and no error) when the key is not cached.
func RetrieveRedis[T any](ctx context.Context, prefix string, id any) (*T, error) {
	var result T
	exists, err := config.GetRedisObject(ctx, CacheKey(prefix, id), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}
