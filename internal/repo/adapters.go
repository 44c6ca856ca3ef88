package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmoran/go-movie-channel/internal/domain"
)

// GormMovieRepo adapts the package-level movie functions to the repository
// interface the catalog service consumes.
type GormMovieRepo struct{}

func (GormMovieRepo) GetMovie(ctx context.Context, db *gorm.DB, key string) (*domain.MovieRecord, error) {
	return GetMovie(ctx, db, key)
}

func (GormMovieRepo) GetMovieByExternalID(ctx context.Context, db *gorm.DB, externalID int64) (*domain.MovieRecord, error) {
	return GetMovieByExternalID(ctx, db, externalID)
}

func (GormMovieRepo) SaveMovie(ctx context.Context, db *gorm.DB, m *domain.MovieRecord) error {
	return SaveMovie(ctx, db, m)
}

func (GormMovieRepo) ListMovies(ctx context.Context, db *gorm.DB) ([]domain.MovieRecord, error) {
	return ListMovies(ctx, db)
}

func (GormMovieRepo) CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	return CountMovies(ctx, db)
}

func (GormMovieRepo) ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MovieRecord, error) {
	return ListMoviesPage(ctx, db, offset, limit)
}

func (GormMovieRepo) SetLastMessageID(ctx context.Context, db *gorm.DB, key string, messageID *int64) error {
	return SetLastMessageID(ctx, db, key, messageID)
}

func (GormMovieRepo) DeleteMovie(ctx context.Context, db *gorm.DB, key string) error {
	return DeleteMovie(ctx, db, key)
}

// GormRequestRepo adapts the package-level request functions to the
// repository interface the request service consumes.
type GormRequestRepo struct{}

func (GormRequestRepo) SaveRequest(ctx context.Context, db *gorm.DB, r *domain.PendingRequest) error {
	return SaveRequest(ctx, db, r)
}

func (GormRequestRepo) TakeRequest(ctx context.Context, db *gorm.DB, title string) (*domain.PendingRequest, error) {
	return TakeRequest(ctx, db, title)
}

func (GormRequestRepo) ListRequests(ctx context.Context, db *gorm.DB) ([]domain.PendingRequest, error) {
	return ListRequests(ctx, db)
}

func (GormRequestRepo) CountRequests(ctx context.Context, db *gorm.DB) (int64, error) {
	return CountRequests(ctx, db)
}
