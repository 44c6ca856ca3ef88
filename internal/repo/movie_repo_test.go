package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dmoran/go-movie-channel/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("movie_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestSaveMovie_RoundTrip(t *testing.T) {
	db := newRepoDB(t, &domain.MovieRecord{})
	ctx := context.Background()

	m := &domain.MovieRecord{
		Key:        "dune",
		Names:      []string{"Dune", "Duna"},
		ExternalID: 438631,
		Link:       "http://example/dune",
	}
	if err := SaveMovie(ctx, db, m); err != nil {
		t.Fatalf("SaveMovie: %v", err)
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", m)
	}

	got, err := GetMovie(ctx, db, "dune")
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if got.ExternalID != 438631 || got.Link != "http://example/dune" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Names) != 2 || got.Names[0] != "Dune" || got.Names[1] != "Duna" {
		t.Fatalf("alias list did not round-trip: %v", got.Names)
	}
	if got.LastMessageID != nil {
		t.Fatalf("fresh record should have no live message, got %v", *got.LastMessageID)
	}
}

func TestGetMovie_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.MovieRecord{})
	_, err := GetMovie(context.Background(), db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMovieByExternalID(t *testing.T) {
	db := newRepoDB(t, &domain.MovieRecord{})
	ctx := context.Background()

	if err := SaveMovie(ctx, db, &domain.MovieRecord{
		Key: "dune", Names: []string{"Dune"}, ExternalID: 438631, Link: "l",
	}); err != nil {
		t.Fatalf("SaveMovie: %v", err)
	}

	got, err := GetMovieByExternalID(ctx, db, 438631)
	if err != nil {
		t.Fatalf("GetMovieByExternalID: %v", err)
	}
	if got.Key != "dune" {
		t.Fatalf("key = %q", got.Key)
	}

	if _, err := GetMovieByExternalID(ctx, db, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveMovie_ExternalIDUnique(t *testing.T) {
	db := newRepoDB(t, &domain.MovieRecord{})
	ctx := context.Background()

	if err := SaveMovie(ctx, db, &domain.MovieRecord{
		Key: "dune", Names: []string{"Dune"}, ExternalID: 438631, Link: "l",
	}); err != nil {
		t.Fatalf("SaveMovie: %v", err)
	}
	err := SaveMovie(ctx, db, &domain.MovieRecord{
		Key: "dune 2", Names: []string{"Dune 2"}, ExternalID: 438631, Link: "l2",
	})
	if err == nil {
		t.Fatal("expected unique-index violation for shared external id")
	}
}

func TestListMoviesPage_OrderAndBounds(t *testing.T) {
	db := newRepoDB(t, &domain.MovieRecord{})
	ctx := context.Background()

	for i, key := range []string{"casablanca", "alien", "dune", "blade runner"} {
		if err := SaveMovie(ctx, db, &domain.MovieRecord{
			Key: key, Names: []string{key}, ExternalID: int64(i + 1), Link: "l",
		}); err != nil {
			t.Fatalf("SaveMovie(%s): %v", key, err)
		}
	}

	total, err := CountMovies(ctx, db)
	if err != nil || total != 4 {
		t.Fatalf("CountMovies = %d, %v", total, err)
	}

	page, err := ListMoviesPage(ctx, db, 1, 2)
	if err != nil {
		t.Fatalf("ListMoviesPage: %v", err)
	}
	if len(page) != 2 || page[0].Key != "blade runner" || page[1].Key != "casablanca" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := ListMoviesPage(ctx, db, 10, 2)
	if err != nil || len(empty) != 0 {
		t.Fatalf("out-of-range page = %v, %v", empty, err)
	}
}

func TestSetLastMessageID(t *testing.T) {
	db := newRepoDB(t, &domain.MovieRecord{})
	ctx := context.Background()

	if err := SaveMovie(ctx, db, &domain.MovieRecord{
		Key: "dune", Names: []string{"Dune"}, ExternalID: 1, Link: "l",
	}); err != nil {
		t.Fatalf("SaveMovie: %v", err)
	}

	id := int64(777)
	if err := SetLastMessageID(ctx, db, "dune", &id); err != nil {
		t.Fatalf("SetLastMessageID: %v", err)
	}
	got, _ := GetMovie(ctx, db, "dune")
	if got.LastMessageID == nil || *got.LastMessageID != 777 {
		t.Fatalf("LastMessageID = %v", got.LastMessageID)
	}

	if err := SetLastMessageID(ctx, db, "dune", nil); err != nil {
		t.Fatalf("clear SetLastMessageID: %v", err)
	}
	got, _ = GetMovie(ctx, db, "dune")
	if got.LastMessageID != nil {
		t.Fatalf("LastMessageID not cleared: %v", *got.LastMessageID)
	}

	if err := SetLastMessageID(ctx, db, "missing", &id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMovie(t *testing.T) {
	db := newRepoDB(t, &domain.MovieRecord{})
	ctx := context.Background()

	if err := SaveMovie(ctx, db, &domain.MovieRecord{
		Key: "dune", Names: []string{"Dune"}, ExternalID: 1, Link: "l",
	}); err != nil {
		t.Fatalf("SaveMovie: %v", err)
	}
	if err := DeleteMovie(ctx, db, "dune"); err != nil {
		t.Fatalf("DeleteMovie: %v", err)
	}
	if err := DeleteMovie(ctx, db, "dune"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
