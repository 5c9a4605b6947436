package shortener

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Repository when no record matches the code.
	ErrNotFound = errors.New("short url not found")
	// ErrCodeConflict is returned by a Repository when the code is already taken.
	ErrCodeConflict = errors.New("short code already exists")
	// ErrEmptyURL is returned by the Creator when no URL was given.
	ErrEmptyURL = errors.New("url is empty")
	// ErrInvalidURL is returned by ValidateURL for URLs that cannot be redirected to.
	ErrInvalidURL = errors.New("url must be an absolute http or https url")
)

// Code represents a short URL code.
type Code string

// ShortURL maps a short code to the original URL. Records are immutable once saved.
type ShortURL struct {
	Code        Code
	OriginalURL string
	CreatedAt   time.Time
}

const cacheKeyPrefix = "shorturl:"

// CacheKey returns the cache slot for a code. Every code gets its own slot.
func CacheKey(code Code) string {
	return cacheKeyPrefix + string(code)
}
