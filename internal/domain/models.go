// Package domain defines the persistence models for the movie catalog and
// pending user requests, plus the value types exchanged between the
// conversation engine, the publication scheduler, and the gateways.
// These types are mapped with GORM and form the core data layer of the bot.
package domain

import (
	"strings"
	"time"
)

// CanonicalKey returns the lower-cased, whitespace-trimmed form of a title,
// used to index the catalog and the pending-request table.
func CanonicalKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// MovieRecord is a catalog entry keyed by the canonical (lower-cased) primary
// title. A record carries every display alias the admin registered, the TMDB
// identifier, the playback link, and the id of the record's live channel
// message, if one exists.
//
// Invariant: LastMessageID is either nil (no live post) or the id of the one
// channel message currently announcing this record. The post replacer clears
// it before attributing a new message id.
type MovieRecord struct {
	Key           string    `json:"key"             gorm:"type:varchar(255);primaryKey"`
	Names         []string  `json:"names"           gorm:"serializer:json;not null"`
	ExternalID    int64     `json:"external_id"     gorm:"uniqueIndex;not null"`
	Link          string    `json:"link"            gorm:"type:text;not null"`
	LastMessageID *int64    `json:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for MovieRecord.
func (MovieRecord) TableName() string { return "movies" }

// PrimaryName returns the first display alias, falling back to the key when
// the alias list is empty.
func (m *MovieRecord) PrimaryName() string {
	if len(m.Names) > 0 {
		return m.Names[0]
	}
	return m.Key
}

// Aliases returns the display aliases after the primary name.
func (m *MovieRecord) Aliases() []string {
	if len(m.Names) < 2 {
		return nil
	}
	return m.Names[1:]
}

// Matches reports whether text equals the canonical key or any registered
// alias, case-insensitively.
func (m *MovieRecord) Matches(text string) bool {
	want := CanonicalKey(text)
	if want == "" {
		return false
	}
	if want == m.Key {
		return true
	}
	for _, n := range m.Names {
		if CanonicalKey(n) == want {
			return true
		}
	}
	return false
}

// PendingRequest tracks an unresolved user movie request, keyed by the
// canonical requested title. At most one requester is remembered per title;
// a later request for the same title overwrites the earlier one.
type PendingRequest struct {
	Title         string    `json:"title"          gorm:"type:varchar(255);primaryKey"`
	RequesterID   int64     `json:"requester_id"   gorm:"not null"`
	RequesterName string    `json:"requester_name" gorm:"type:varchar(255)"`
	ExternalID    *int64    `json:"external_id,omitempty"` // set when the fallback metadata search resolved the title
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for PendingRequest.
func (PendingRequest) TableName() string { return "pending_requests" }

// MovieDetails is the descriptor returned by the metadata gateway.
type MovieDetails struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
}

// ScheduledJob is a delayed publication of one catalog entry. The delay is
// fixed at enqueue time; the scheduler waits out the remainder measured from
// EnqueuedAt, not from dequeue.
type ScheduledJob struct {
	MovieKey   string
	Delay      time.Duration
	EnqueuedAt time.Time
}

// Due returns the instant the job becomes eligible to publish.
func (j ScheduledJob) Due() time.Time { return j.EnqueuedAt.Add(j.Delay) }

// ConversationState enumerates the per-user dialog states of the
// conversation engine. A user is in exactly one state at a time.
type ConversationState int

const (
	// StateIdle is the initial and terminal state of every dialog.
	StateIdle ConversationState = iota
	// StateAwaitingMovieUpload waits for the admin's structured upload line.
	StateAwaitingMovieUpload
	// StateAwaitingMovieName waits for a user's free-text movie title.
	StateAwaitingMovieName
	// StateAwaitingRequestedMovieLink waits for the link completing an
	// admin-assisted request fulfillment.
	StateAwaitingRequestedMovieLink
)

// String implements fmt.Stringer for logging.
func (s ConversationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingMovieUpload:
		return "awaiting_movie_upload"
	case StateAwaitingMovieName:
		return "awaiting_movie_name"
	case StateAwaitingRequestedMovieLink:
		return "awaiting_requested_movie_link"
	default:
		return "unknown"
	}
}

// ConversationContext is the state-local data carried across a transition.
// Entering a new state discards the previous context.
type ConversationContext struct {
	// RequestedTitle is the title the user originally asked for, carried by
	// the fulfillment flows so the requester can be notified.
	RequestedTitle string
	// ExternalID is the TMDB id resolved by the fallback search, carried
	// into StateAwaitingRequestedMovieLink.
	ExternalID int64
}
