// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the MovieRecord
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Alias matching lives in the service
// layer because aliases are stored as a JSON column.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dmoran/go-movie-channel/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetMovie fetches a single catalog record by its canonical key.
// Returns ErrNotFound when the key is absent.
func GetMovie(ctx context.Context, db *gorm.DB, key string) (*domain.MovieRecord, error) {
	var m domain.MovieRecord
	if err := db.WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMovieByExternalID fetches the catalog record holding the given metadata
// service id. ExternalID is unique across the catalog, so at most one record
// can match. Returns ErrNotFound when no record holds the id.
func GetMovieByExternalID(ctx context.Context, db *gorm.DB, externalID int64) (*domain.MovieRecord, error) {
	var m domain.MovieRecord
	if err := db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMovie inserts or fully replaces a catalog record (write-through: the
// row is durable once this returns). On conflict with another record's
// external id the unique index rejects the write and the raw error is
// returned; callers dedupe by external id before inserting.
func SaveMovie(ctx context.Context, db *gorm.DB, m *domain.MovieRecord) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return db.WithContext(ctx).Save(m).Error
}

// ListMovies returns the whole catalog ordered by canonical key. The catalog
// is small (hundreds of titles); callers scan it for alias matches and for
// auto-post candidate selection.
func ListMovies(ctx context.Context, db *gorm.DB) ([]domain.MovieRecord, error) {
	var out []domain.MovieRecord
	err := db.WithContext(ctx).Order("key asc").Find(&out).Error
	return out, err
}

// CountMovies returns the total number of catalog records.
func CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.MovieRecord{}).Count(&total).Error
	return total, err
}

// ListMoviesPage returns a page of the catalog ordered by canonical key.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MovieRecord, error) {
	var out []domain.MovieRecord
	err := db.WithContext(ctx).
		Order("key asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SetLastMessageID updates a record's live channel message reference.
// Pass nil to mark the record as having no live message. Returns ErrNotFound
// when the key does not exist.
func SetLastMessageID(ctx context.Context, db *gorm.DB, key string, messageID *int64) error {
	res := db.WithContext(ctx).
		Model(&domain.MovieRecord{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"last_message_id": messageID,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteMovie removes a catalog record by canonical key. Returns ErrNotFound
// when the key does not exist.
func DeleteMovie(ctx context.Context, db *gorm.DB, key string) error {
	res := db.WithContext(ctx).Where("key = ?", key).Delete(&domain.MovieRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
