package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/shortlink/internal/shortener"
)

var errMock = errors.New("mock error")

const testURL = "https://example.com"

// mockCreator is a test double for handlers.Creator.
type mockCreator struct {
	err      error
	received string
}

func (m *mockCreator) Create(_ context.Context, longURL string) (*shortener.Shortened, error) {
	m.received = longURL

	if m.err != nil {
		return nil, m.err
	}

	return &shortener.Shortened{
		ShortURL:    "http://localhost:8888/abc123",
		Code:        "abc123",
		OriginalURL: longURL,
	}, nil
}

// mockResolver is a test double for handlers.Resolver.
type mockResolver struct {
	url   string
	found bool
	err   error
}

func (m *mockResolver) Resolve(_ context.Context, _ shortener.Code) (string, bool, error) {
	return m.url, m.found, m.err
}
