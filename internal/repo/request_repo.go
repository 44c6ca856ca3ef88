// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PendingRequest model.
//
// PendingRequest rows are keyed by the canonical requested title and follow
// last-writer-wins semantics: saving a request for a title that already has
// one overwrites the stored requester. TakeRequest implements the
// consume-exactly-once contract of the request correlator by deleting the row
// in the same transaction that reads it.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dmoran/go-movie-channel/internal/domain"
)

// SaveRequest inserts or overwrites the pending request for a title
// (last-writer-wins per canonical title).
func SaveRequest(ctx context.Context, db *gorm.DB, r *domain.PendingRequest) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return db.WithContext(ctx).Save(r).Error
}

// TakeRequest returns the pending request for a canonical title and deletes
// it atomically, so a second take for the same title yields nothing.
// Returns (nil, nil) when no request is pending; absence is not an error.
func TakeRequest(ctx context.Context, db *gorm.DB, title string) (*domain.PendingRequest, error) {
	var out *domain.PendingRequest
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r domain.PendingRequest
		if err := tx.Where("title = ?", title).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("title = ?", title).Delete(&domain.PendingRequest{}).Error; err != nil {
			return err
		}
		out = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListRequests returns all pending requests, oldest first.
func ListRequests(ctx context.Context, db *gorm.DB) ([]domain.PendingRequest, error) {
	var out []domain.PendingRequest
	err := db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, err
}

// CountRequests returns the number of outstanding pending requests.
func CountRequests(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.PendingRequest{}).Count(&total).Error
	return total, err
}
