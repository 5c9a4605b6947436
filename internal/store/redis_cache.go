package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

var (
	errCacheMiss    = errors.New("cache miss")
	errCorruptEntry = errors.New("corrupt cache entry")
)

// RedisCache is a get-or-populate shortener.Cache backed by Redis hashes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a new Redis cache. A ttl of zero keeps entries until evicted.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetOrSet returns the cached record for key, loading and caching it on a miss.
func (r *RedisCache) GetOrSet(
	ctx context.Context, key string, load shortener.Loader,
) (*shortener.ShortURL, error) {
	url, err := r.getFromCache(ctx, key)
	if err == nil {
		return url, nil
	}

	if !errors.Is(err, errCacheMiss) {
		return nil, fmt.Errorf("redis cache get %q: %w", key, err)
	}

	url, err = load(ctx)
	if err != nil {
		return nil, err
	}

	if url == nil {
		return nil, shortener.ErrNotFound
	}

	// The record is already loaded; a failed write only costs the next reader a miss.
	if err := r.cacheURL(ctx, key, url); err != nil {
		r.logger.Warn("failed to populate cache",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	return url, nil
}

func (r *RedisCache) getFromCache(ctx context.Context, key string) (*shortener.ShortURL, error) {
	result, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, errCacheMiss
	}

	code, okCode := result["code"]
	originalURL, okURL := result["original_url"]

	if !okCode || !okURL {
		return nil, errCorruptEntry
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		nanos, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, errCorruptEntry
		}

		createdAt = time.Unix(0, nanos)
	}

	return &shortener.ShortURL{
		Code:        shortener.Code(code),
		OriginalURL: originalURL,
		CreatedAt:   createdAt,
	}, nil
}

func (r *RedisCache) cacheURL(ctx context.Context, key string, url *shortener.ShortURL) error {
	pipe := r.client.Pipeline()

	pipe.HSet(ctx, key, map[string]interface{}{
		"code":         string(url.Code),
		"original_url": url.OriginalURL,
		"created_at":   url.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, err := pipe.Exec(ctx)

	return err
}

// Compile-time check.
var _ shortener.Cache = (*RedisCache)(nil)
