// Package bot – message formatting
//
// This file builds the user-visible texts: the channel announcement caption,
// the popular-movie news caption, and the admin catalog listing. User-facing
// strings are Spanish, matching the channel's audience; captions use
// Telegram HTML.
package bot

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmoran/go-movie-channel/internal/domain"
	"github.com/dmoran/go-movie-channel/internal/telegram"
)

// titleCaser renders canonical keys presentably in the admin listing when a
// record carries no display aliases.
var titleCaser = cases.Title(language.Spanish)

// BuildPostCaption renders the channel announcement for a movie descriptor.
func BuildPostCaption(d *domain.MovieDetails, link string) string {
	overview := strings.TrimSpace(d.Overview)
	if overview == "" {
		overview = "Sinopsis no disponible."
	}
	release := d.ReleaseDate
	if release == "" {
		release = "Fecha no disponible"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>🎬 %s</b>\n\n", d.Title)
	fmt.Fprintf(&b, "<i>Sinopsis:</i> %s\n\n", overview)
	fmt.Fprintf(&b, "📅 <b>Fecha de estreno:</b> %s\n", release)
	fmt.Fprintf(&b, "⭐ <b>Puntuación:</b> %.1f/10", d.VoteAverage)
	if link != "" {
		fmt.Fprintf(&b, "\n\n<a href=\"%s\">Ver la película aquí</a>", link)
	}
	return b.String()
}

// ChannelKeyboard is the single-button keyboard attached to every channel
// post, deep-linking back to the request bot.
func ChannelKeyboard(requestBotURL string) *telegram.InlineKeyboardMarkup {
	if requestBotURL == "" {
		return nil
	}
	return telegram.InlineRow(telegram.InlineKeyboardButton{
		Text: "🎬 ¿Quieres pedir una película? Pídela aquí 👇",
		URL:  requestBotURL,
	})
}

// BuildNewsCaption renders the daily popular-movie post.
func BuildNewsCaption(d *domain.MovieDetails, requestBotURL string) string {
	var b strings.Builder
	b.WriteString("🎬 <b>Noticia del día: ¡Película popular!</b>\n\n")
	fmt.Fprintf(&b, "¿Sabías que <b>%s</b> es una de las películas más populares del momento?\n", d.Title)
	fmt.Fprintf(&b, "Su puntuación es de <b>%.1f/10</b>. ¡No te la pierdas!", d.VoteAverage)
	if requestBotURL != "" {
		fmt.Fprintf(&b, "\n\n¿Te gustaría verla? Pídela aquí: %s", requestBotURL)
	}
	return b.String()
}

// BuildCatalogListing renders the admin "view catalog" reply, one line per
// record with the primary name and any aliases in parentheses.
func BuildCatalogListing(records []domain.MovieRecord) string {
	if len(records) == 0 {
		return "Aún no hay películas en la base de datos."
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, "Películas en la base de datos:", "")
	for i := range records {
		r := &records[i]
		name := r.PrimaryName()
		if len(r.Names) == 0 {
			name = titleCaser.String(r.Key)
		}
		if aliases := r.Aliases(); len(aliases) > 0 {
			lines = append(lines, fmt.Sprintf("- %s (%s)", name, strings.Join(aliases, ", ")))
		} else {
			lines = append(lines, fmt.Sprintf("- %s", name))
		}
	}
	return strings.Join(lines, "\n")
}
