package shortener

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Resolver resolves short codes through a cache, falling back to the store when the
// cache fails. A cache outage costs latency, never correctness.
type Resolver struct {
	store  Repository
	cache  Cache
	logger *zap.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(store Repository, cache Cache, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Resolve returns the original URL for code. An unknown code yields found == false and a
// nil error. Only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, code Code) (string, bool, error) {
	shortURL, err := r.lookup(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return shortURL.OriginalURL, true, nil
}

func (r *Resolver) lookup(ctx context.Context, code Code) (*ShortURL, error) {
	var loadErr error

	load := func(ctx context.Context) (*ShortURL, error) {
		shortURL, err := r.store.GetByCode(ctx, code)
		loadErr = err

		return shortURL, err
	}

	shortURL, err := r.cache.GetOrSet(ctx, CacheKey(code), load)
	if err == nil {
		if shortURL == nil {
			return nil, ErrNotFound
		}

		return shortURL, nil
	}

	// The store already answered through the loader; reading it again would not help.
	if loadErr != nil && errors.Is(err, loadErr) {
		return nil, storeError(code, err)
	}

	r.logger.Warn("cache lookup failed, reading from store",
		zap.String("code", string(code)),
		zap.Error(err),
	)

	shortURL, err = r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, storeError(code, err)
	}

	if shortURL == nil {
		return nil, ErrNotFound
	}

	return shortURL, nil
}

func storeError(code Code, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}

	return fmt.Errorf("get short url %q: %w", code, err)
}
