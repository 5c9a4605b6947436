package store

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type shortURLRow struct {
	Code        string `gorm:"primaryKey;size:64"`
	OriginalURL string `gorm:"not null"`
	CreatedAt   time.Time
}

func (shortURLRow) TableName() string {
	return "short_urls"
}

// OpenSQLite opens the SQLite database at path and migrates the short_urls table.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&shortURLRow{}); err != nil {
		return nil, err
	}

	return db, nil
}

// SQLiteStore is a GORM/SQLite implementation of shortener.Repository for single-node setups.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore creates a new SQLite-backed URL store.
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts a row. A primary key violation is returned as ErrCodeConflict.
func (s *SQLiteStore) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	row := shortURLRow{
		Code:        string(shortURL.Code),
		OriginalURL: shortURL.OriginalURL,
		CreatedAt:   shortURL.CreatedAt,
	}

	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shortener.ErrCodeConflict
	}

	return err
}

// GetByCode returns the record for code, or ErrNotFound.
func (s *SQLiteStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	var row shortURLRow

	err := s.db.WithContext(ctx).Where("code = ?", string(code)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &shortener.ShortURL{
		Code:        shortener.Code(row.Code),
		OriginalURL: row.OriginalURL,
		CreatedAt:   row.CreatedAt,
	}, nil
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Shutdown closes the underlying database handle.
func (s *SQLiteStore) Shutdown() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Compile-time check.
var _ shortener.Repository = (*SQLiteStore)(nil)
