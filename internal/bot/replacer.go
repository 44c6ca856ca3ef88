// Package bot – post replacer
//
// This file enforces the single-live-post invariant: a catalog record has at
// most one live channel message at any time. Replace deletes the previous
// message (best effort), clears the stored reference, sends the new content,
// and only then attributes the new message id. A failed send leaves the
// record with no live message rather than a dangling reference.
package bot

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dmoran/go-movie-channel/internal/domain"
	"github.com/dmoran/go-movie-channel/internal/services"
	"github.com/dmoran/go-movie-channel/internal/telegram"
)

// Post is the renderable content of one channel announcement.
type Post struct {
	Caption   string
	PosterURL string // "" sends a plain text message
	Markup    *telegram.InlineKeyboardMarkup
}

// Replacer publishes announcements to the broadcast channel, replacing a
// record's previous live message.
type Replacer struct {
	Messenger Messenger
	Catalog   *services.CatalogService
	ChannelID int64
	Log       zerolog.Logger
}

// NewReplacer constructs a Replacer targeting the given channel.
func NewReplacer(m Messenger, c *services.CatalogService, channelID int64, log zerolog.Logger) *Replacer {
	return &Replacer{
		Messenger: m,
		Catalog:   c,
		ChannelID: channelID,
		Log:       log.With().Str("component", "replacer").Logger(),
	}
}

// Replace sends a new announcement for rec and returns the new message id.
//
// Sequence:
//  1. If the record has a live message, request its deletion. A deletion
//     failure (typically "already deleted") is logged and not escalated.
//  2. Clear the stored reference and persist. From here the record is in the
//     "no live message" state whatever happens next.
//  3. Send the new content. On failure the cleared state stands and the
//     error is returned. On success the new id is persisted and returned.
func (r *Replacer) Replace(ctx context.Context, rec *domain.MovieRecord, post Post) (int64, error) {
	if rec.LastMessageID != nil {
		old := *rec.LastMessageID
		if err := r.Messenger.DeleteMessage(ctx, r.ChannelID, old); err != nil {
			r.Log.Warn().Err(err).Str("key", rec.Key).Int64("message_id", old).
				Msg("could not delete previous channel post")
		}
		if err := r.Catalog.SetLastMessage(ctx, rec.Key, nil); err != nil {
			return 0, err
		}
		rec.LastMessageID = nil
	}

	opts := &telegram.SendOptions{ParseMode: "HTML"}
	if post.Markup != nil {
		opts.ReplyMarkup = post.Markup
	}

	var (
		newID int64
		err   error
	)
	if post.PosterURL != "" {
		newID, err = r.Messenger.SendPhoto(ctx, r.ChannelID, post.PosterURL, post.Caption, opts)
	} else {
		newID, err = r.Messenger.SendMessage(ctx, r.ChannelID, post.Caption, opts)
	}
	if err != nil {
		r.Log.Error().Err(err).Str("key", rec.Key).Msg("channel post send failed")
		return 0, err
	}

	if err := r.Catalog.SetLastMessage(ctx, rec.Key, &newID); err != nil {
		return 0, err
	}
	rec.LastMessageID = &newID
	return newID, nil
}
