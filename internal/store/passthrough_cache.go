package store

import (
	"context"

	"github.com/serroba/shortlink/internal/shortener"
)

// PassthroughCache caches nothing; every lookup goes to the loader.
type PassthroughCache struct{}

// NewPassthroughCache creates a cache that always misses.
func NewPassthroughCache() *PassthroughCache {
	return &PassthroughCache{}
}

func (PassthroughCache) GetOrSet(
	ctx context.Context, _ string, load shortener.Loader,
) (*shortener.ShortURL, error) {
	return load(ctx)
}

// Compile-time check.
var _ shortener.Cache = PassthroughCache{}
