package shortener_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
)

var (
	errStore = errors.New("store unavailable")
	errCache = errors.New("cache connection refused")
)

const testURL = "https://example.com/very/long/path"

// mockStore is a test double for shortener.Repository that can be configured to return errors.
type mockStore struct {
	mu           sync.Mutex
	urls         map[shortener.Code]shortener.ShortURL
	saveErr      error
	getByCodeErr error
	getCalls     int
}

func newMockStore() *mockStore {
	return &mockStore{urls: make(map[shortener.Code]shortener.ShortURL)}
}

func (m *mockStore) Save(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	if _, ok := m.urls[shortURL.Code]; ok {
		return shortener.ErrCodeConflict
	}

	m.urls[shortURL.Code] = *shortURL

	return nil
}

func (m *mockStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++

	if m.getByCodeErr != nil {
		return nil, m.getByCodeErr
	}

	url, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &url, nil
}

func (m *mockStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getCalls
}

// failingCache fails every lookup without calling the loader.
type failingCache struct {
	err  error
	keys []string
}

func (f *failingCache) GetOrSet(_ context.Context, key string, _ shortener.Loader) (*shortener.ShortURL, error) {
	f.keys = append(f.keys, key)

	return nil, f.err
}

// mapCache is a minimal get-or-populate cache that records the keys it was asked for.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]shortener.ShortURL
	keys    []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]shortener.ShortURL)}
}

func (c *mapCache) GetOrSet(ctx context.Context, key string, load shortener.Loader) (*shortener.ShortURL, error) {
	c.mu.Lock()
	c.keys = append(c.keys, key)
	url, ok := c.entries[key]
	c.mu.Unlock()

	if ok {
		return &url, nil
	}

	loaded, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = *loaded
	c.mu.Unlock()

	return loaded, nil
}

// wrappingCache runs the loader and wraps whatever it returns, like a cache that adds context.
type wrappingCache struct{}

func (wrappingCache) GetOrSet(ctx context.Context, key string, load shortener.Loader) (*shortener.ShortURL, error) {
	url, err := load(ctx)
	if err != nil {
		return nil, errors.Join(errors.New("loading "+key), err)
	}

	return url, nil
}

func sequenceGenerator(codes ...string) shortener.CodeGenerator {
	i := 0

	return func() string {
		code := codes[i%len(codes)]
		i++

		return code
	}
}
