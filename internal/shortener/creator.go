package shortener

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Shortened is the externally visible result of creating a short URL.
type Shortened struct {
	ShortURL    string
	Code        Code
	OriginalURL string
	CreatedAt   time.Time
}

// Creator always generates a new code for each URL.
type Creator struct {
	store        Repository
	generateCode CodeGenerator
	baseURL      string
	now          func() time.Time
}

// NewCreator creates a Creator that builds short URLs under baseURL.
func NewCreator(store Repository, generator CodeGenerator, baseURL string) *Creator {
	return &Creator{
		store:        store,
		generateCode: generator,
		baseURL:      strings.TrimRight(baseURL, "/"),
		now:          time.Now,
	}
}

// Create stores a new record for longURL. Save errors are returned as-is; nothing is retried.
func (c *Creator) Create(ctx context.Context, longURL string) (*Shortened, error) {
	if longURL == "" {
		return nil, ErrEmptyURL
	}

	shortURL := &ShortURL{
		Code:        Code(c.generateCode()),
		OriginalURL: longURL,
		CreatedAt:   c.now(),
	}

	if err := c.store.Save(ctx, shortURL); err != nil {
		return nil, fmt.Errorf("save short url %q: %w", shortURL.Code, err)
	}

	return &Shortened{
		ShortURL:    c.ShortURL(shortURL.Code),
		Code:        shortURL.Code,
		OriginalURL: shortURL.OriginalURL,
		CreatedAt:   shortURL.CreatedAt,
	}, nil
}

// ShortURL returns the public URL for code.
func (c *Creator) ShortURL(code Code) string {
	return c.baseURL + "/" + string(code)
}
