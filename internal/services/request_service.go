// Package services – RequestService
//
// This file implements the request correlator: it remembers which user asked
// for a title that missed the catalog, so the admin's eventual fulfillment
// can notify the right person. A title tracks at most one requester
// (last-writer-wins) and a recorded requester is consumed exactly once.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dmoran/go-movie-channel/internal/domain"
)

// RequestRepo defines the repository contract required by RequestService.
type RequestRepo interface {
	// SaveRequest inserts or overwrites the pending request for a title.
	SaveRequest(ctx context.Context, db *gorm.DB, r *domain.PendingRequest) error

	// TakeRequest returns and deletes the pending request for a title;
	// (nil, nil) when none is pending.
	TakeRequest(ctx context.Context, db *gorm.DB, title string) (*domain.PendingRequest, error)

	// ListRequests returns all pending requests, oldest first.
	ListRequests(ctx context.Context, db *gorm.DB) ([]domain.PendingRequest, error)

	// CountRequests returns the number of outstanding requests.
	CountRequests(ctx context.Context, db *gorm.DB) (int64, error)
}

// RequestService correlates unmatched user requests with their eventual
// fulfillment.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the request repository used by this service.
	Repo RequestRepo
}

// NewRequestService constructs a RequestService.
func NewRequestService(db *gorm.DB, r RequestRepo) *RequestService {
	return &RequestService{DB: db, Repo: r}
}

// Record stores the requester for a title that missed the catalog. A second
// request for the same title overwrites the first (last-writer-wins).
// externalID carries the id resolved by the fallback metadata search, when
// there was one.
func (s *RequestService) Record(ctx context.Context, title string, requesterID int64, requesterName string, externalID *int64) error {
	key := domain.CanonicalKey(title)
	if key == "" {
		return ErrEmptyTitle
	}
	return s.Repo.SaveRequest(ctx, s.DB, &domain.PendingRequest{
		Title:         key,
		RequesterID:   requesterID,
		RequesterName: strings.TrimSpace(requesterName),
		ExternalID:    externalID,
	})
}

// Resolve returns the pending request for a title and removes it, so it is
// consumed exactly once. Returns (nil, nil) when nothing is pending for the
// title; absence is not an error — it simply means no notification is owed.
func (s *RequestService) Resolve(ctx context.Context, title string) (*domain.PendingRequest, error) {
	key := domain.CanonicalKey(title)
	if key == "" {
		return nil, nil
	}
	return s.Repo.TakeRequest(ctx, s.DB, key)
}

// Pending returns all outstanding requests, oldest first.
func (s *RequestService) Pending(ctx context.Context) ([]domain.PendingRequest, error) {
	return s.Repo.ListRequests(ctx, s.DB)
}

// Count returns the number of outstanding requests.
func (s *RequestService) Count(ctx context.Context) (int64, error) {
	return s.Repo.CountRequests(ctx, s.DB)
}
