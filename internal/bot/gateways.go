// Package bot implements the catalog and publication orchestrator: the
// per-user conversation engine, the post replacer enforcing the
// single-live-post invariant, and the routing of inbound Telegram updates to
// the catalog, request, and scheduling flows.
//
// This file declares the gateway contracts the orchestrator consumes. The
// concrete implementations live in internal/telegram and internal/tmdb; the
// interfaces are declared here, on the consumer side, so tests can substitute
// fakes without touching the gateway packages.
package bot

import (
	"context"

	"github.com/dmoran/go-movie-channel/internal/domain"
	"github.com/dmoran/go-movie-channel/internal/telegram"
)

// Messenger is the outbound half of the messaging gateway.
type Messenger interface {
	// SendMessage delivers a text message and returns the new message id.
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (int64, error)

	// SendPhoto delivers a photo by URL with a caption and returns the new
	// message id.
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts *telegram.SendOptions) (int64, error)

	// DeleteMessage removes a previously sent message.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error

	// EditMessageText replaces the text of a previously sent message.
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error

	// AnswerCallbackQuery acknowledges a button press, optionally with a popup.
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
}

// Metadata is the movie metadata gateway.
type Metadata interface {
	// SearchMovie resolves a title (and optional year, 0 meaning unknown)
	// to an external id.
	SearchMovie(ctx context.Context, title string, year int) (int64, error)

	// MovieDetails fetches the full descriptor for an external id.
	MovieDetails(ctx context.Context, externalID int64) (*domain.MovieDetails, error)

	// PopularMovies returns the currently popular movies.
	PopularMovies(ctx context.Context) ([]domain.MovieDetails, error)

	// PosterURL builds the full poster image URL for a descriptor's poster
	// path, or "" when there is none.
	PosterURL(posterPath string) string
}

// JobQueue is the slice of the publication scheduler the conversation flows
// drive: enqueueing delayed publications and retuning the daily cadence.
type JobQueue interface {
	// Enqueue appends a delayed publication job (FIFO).
	Enqueue(job domain.ScheduledJob)

	// SetPostsPerDay changes the periodic auto-post target.
	SetPostsPerDay(n int)
}
