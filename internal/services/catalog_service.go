// Package services – CatalogService
//
// This file implements the CatalogService, the owner of the movie catalog.
// It provides case-insensitive lookup against canonical keys and aliases,
// write-through upserts that dedupe by metadata-service id, reverse lookup by
// external id, and catalog pages for the admin listing.
//
// The catalog is the only persistent shared state of the bot; every mutation
// funnels through this service so the durable copy never trails the caller's
// view by more than the duration of a single write.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the canonical key and external id where applicable.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmoran/go-movie-channel/internal/domain"
)

// MovieRepo defines the repository contract required by CatalogService.
// Implementations are responsible for persistence of catalog records.
type MovieRepo interface {
	// GetMovie fetches a record by canonical key.
	GetMovie(ctx context.Context, db *gorm.DB, key string) (*domain.MovieRecord, error)

	// GetMovieByExternalID fetches the record holding a metadata-service id.
	GetMovieByExternalID(ctx context.Context, db *gorm.DB, externalID int64) (*domain.MovieRecord, error)

	// SaveMovie inserts or replaces a record, persisting synchronously.
	SaveMovie(ctx context.Context, db *gorm.DB, m *domain.MovieRecord) error

	// ListMovies returns the whole catalog ordered by key.
	ListMovies(ctx context.Context, db *gorm.DB) ([]domain.MovieRecord, error)

	// CountMovies returns the catalog size for pagination.
	CountMovies(ctx context.Context, db *gorm.DB) (int64, error)

	// ListMoviesPage returns a page of the catalog ordered by key.
	ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MovieRecord, error)

	// SetLastMessageID updates (or clears, with nil) the live message id.
	SetLastMessageID(ctx context.Context, db *gorm.DB, key string, messageID *int64) error

	// DeleteMovie removes a record by canonical key.
	DeleteMovie(ctx context.Context, db *gorm.DB, key string) error
}

// CatalogService provides catalog-level operations: alias-aware lookup,
// deduplicating upserts, and live-message bookkeeping for the post replacer.
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the movie repository used by this service.
	Repo MovieRepo
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB, r MovieRepo) *CatalogService {
	return &CatalogService{DB: db, Repo: r}
}

// Lookup returns the catalog record whose canonical key or any alias equals
// text, case-insensitively. Returns ErrMovieNotFound when nothing matches.
func (s *CatalogService) Lookup(ctx context.Context, text string) (*domain.MovieRecord, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Lookup")
	defer span.End()

	key := domain.CanonicalKey(text)
	if key == "" {
		return nil, ErrEmptyTitle
	}
	span.SetAttributes(attribute.String("catalog.key", key))

	// Fast path: canonical key hit.
	if m, err := s.Repo.GetMovie(ctx, s.DB, key); err == nil {
		return m, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Alias scan. Aliases live in a JSON column, so matching happens here.
	all, err := s.Repo.ListMovies(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Matches(text) {
			return &all[i], nil
		}
	}
	return nil, ErrMovieNotFound
}

// ByExternalID returns the record holding the given metadata-service id, or
// ErrMovieNotFound when no record holds it.
func (s *CatalogService) ByExternalID(ctx context.Context, externalID int64) (*domain.MovieRecord, error) {
	m, err := s.Repo.GetMovieByExternalID(ctx, s.DB, externalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// Upsert inserts or updates the catalog entry for primaryTitle. The external
// id is the identity anchor: if a record already holds it, that record is
// updated in place (its key and live-message reference are preserved) rather
// than a second record being inserted. Alias lists are sanitized on ingestion:
// trimmed, blanks dropped, case-insensitive duplicates collapsed, and the
// primary title always first.
func (s *CatalogService) Upsert(ctx context.Context, primaryTitle string, aliases []string, externalID int64, link string) (*domain.MovieRecord, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Upsert",
		trace.WithAttributes(attribute.Int64("movie.external_id", externalID)),
	)
	defer span.End()

	key := domain.CanonicalKey(primaryTitle)
	if key == "" {
		return nil, ErrEmptyTitle
	}
	if externalID == 0 {
		return nil, ErrMissingExternalID
	}
	if strings.TrimSpace(link) == "" {
		return nil, ErrMissingLink
	}
	names := sanitizeNames(primaryTitle, aliases)

	// Locate by external id first so a re-upload becomes an update in place.
	existing, err := s.Repo.GetMovieByExternalID(ctx, s.DB, externalID)
	switch {
	case err == nil:
		existing.Names = names
		existing.Link = strings.TrimSpace(link)
		if err := s.Repo.SaveMovie(ctx, s.DB, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to insert
	default:
		return nil, err
	}

	m := &domain.MovieRecord{
		Key:        key,
		Names:      names,
		ExternalID: externalID,
		Link:       strings.TrimSpace(link),
	}
	if err := s.Repo.SaveMovie(ctx, s.DB, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetLastMessage records (or clears, with nil) a record's live channel
// message id, persisting synchronously.
func (s *CatalogService) SetLastMessage(ctx context.Context, key string, messageID *int64) error {
	err := s.Repo.SetLastMessageID(ctx, s.DB, key, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMovieNotFound
	}
	return err
}

// Remove deletes the catalog entry for a canonical key. A live channel
// announcement, if any, is not touched; removing the record only stops the
// title from being looked up or rotated. Returns ErrMovieNotFound when the
// key is absent.
func (s *CatalogService) Remove(ctx context.Context, key string) error {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Remove",
		trace.WithAttributes(attribute.String("catalog.key", key)),
	)
	defer span.End()

	k := domain.CanonicalKey(key)
	if k == "" {
		return ErrEmptyTitle
	}
	err := s.Repo.DeleteMovie(ctx, s.DB, k)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMovieNotFound
	}
	return err
}

// All returns every catalog record ordered by canonical key.
func (s *CatalogService) All(ctx context.Context) ([]domain.MovieRecord, error) {
	return s.Repo.ListMovies(ctx, s.DB)
}

// Page returns one page of the catalog plus the total count. It applies
// defaults for invalid page/pageSize.
func (s *CatalogService) Page(ctx context.Context, page, pageSize int) ([]domain.MovieRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountMovies(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.MovieRecord{}, 0, nil
	}

	items, err := s.Repo.ListMoviesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// sanitizeNames builds the stored alias list: the trimmed primary title
// first, then each alias trimmed, with blanks dropped and case-insensitive
// duplicates collapsed (first spelling wins).
func sanitizeNames(primaryTitle string, aliases []string) []string {
	out := make([]string, 0, len(aliases)+1)
	seen := make(map[string]struct{}, len(aliases)+1)

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		k := domain.CanonicalKey(name)
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		out = append(out, name)
	}

	add(primaryTitle)
	for _, a := range aliases {
		add(a)
	}
	return out
}
