package shortener

import "context"

// Repository is the durable, authoritative store for short URLs.
type Repository interface {
	// Save inserts a new record. Returns ErrCodeConflict if the code already exists.
	Save(ctx context.Context, shortURL *ShortURL) error
	// GetByCode returns the record for code, or ErrNotFound.
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)
}

// Loader reads a record from the durable store on a cache miss.
type Loader func(ctx context.Context) (*ShortURL, error)

// Cache is a get-or-populate cache in front of a Repository.
//
// On a miss GetOrSet calls load synchronously, caches a successful result and returns it.
// Errors returned by load are passed back unchanged and are never cached. Any other error
// means the cache itself failed.
type Cache interface {
	GetOrSet(ctx context.Context, key string, load Loader) (*ShortURL, error)
}

// CodeGenerator generates unique short codes.
type CodeGenerator func() string
