// Package services defines the business logic for the movie catalog and the
// pending-request correlator. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages is performed by the conversation engine and the
// ops API handlers.
package services

import "errors"

var (
	// ErrMovieNotFound indicates that no catalog record matches the given
	// title, alias, or external id.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrEmptyTitle is returned when a lookup or upsert is attempted with a
	// blank title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrMissingLink is returned when an upsert is attempted without a
	// playback link.
	ErrMissingLink = errors.New("movie link is empty")

	// ErrMissingExternalID is returned when an upsert is attempted without a
	// metadata service id.
	ErrMissingExternalID = errors.New("external id is empty")
)
