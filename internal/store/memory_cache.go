package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryCache is an in-process shortener.Cache with per-entry expiry.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a new in-process cache. A ttl of zero keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		return &MemoryCache{items: gocache.New(gocache.NoExpiration, 0)}
	}

	return &MemoryCache{items: gocache.New(ttl, 2*ttl)}
}

// GetOrSet returns the cached record for key, loading and caching it on a miss.
func (m *MemoryCache) GetOrSet(
	ctx context.Context, key string, load shortener.Loader,
) (*shortener.ShortURL, error) {
	if v, ok := m.items.Get(key); ok {
		if url, ok := v.(shortener.ShortURL); ok {
			return &url, nil
		}

		m.items.Delete(key)
	}

	url, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if url == nil {
		return nil, shortener.ErrNotFound
	}

	m.items.SetDefault(key, *url)

	return url, nil
}

// Len returns the number of cached entries, including expired ones not yet cleaned up.
func (m *MemoryCache) Len() int {
	return m.items.ItemCount()
}

// Compile-time check.
var _ shortener.Cache = (*MemoryCache)(nil)
