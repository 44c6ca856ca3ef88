// Package bot – update orchestrator
//
// This file routes inbound Telegram updates through the conversation engine
// and into the catalog, request-correlation, and publication flows. All admin
// triggers re-check the administrator identity on the triggering message, so
// another user can never complete an admin's pending dialog.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmoran/go-movie-channel/internal/config"
	"github.com/dmoran/go-movie-channel/internal/domain"
	"github.com/dmoran/go-movie-channel/internal/services"
	"github.com/dmoran/go-movie-channel/internal/telegram"
	"github.com/dmoran/go-movie-channel/internal/tmdb"
)

// Admin reply-keyboard labels. The reply keyboard echoes the label back as a
// plain text message, so routing matches on these exact strings.
const (
	btnAddMovie    = "➕ Agregar película"
	btnViewCatalog = "📋 Ver películas"
	btnAutoConfig  = "⚙️ Configuración auto-publicación"
)

// Callback tokens. cbScheduleMenu must be matched before cbSchedulePrefix.
const (
	cbAskForMovie      = "ask_for_movie"
	cbAddAgain         = "add_movie_again"
	cbSetAutoPrefix    = "set_auto_"
	cbPublishNowPrefix = "publish_now_"
	cbScheduleMenu     = "schedule_menu_"
	cbSchedulePrefix   = "schedule_"
	cbFulfillPrefix    = "fulfill_"
	cbAddRequested     = "add_requested_"
)

// Publish sources for metrics.
const (
	sourceImmediate   = "immediate"
	sourceRequest     = "request"
	sourceFulfillment = "fulfillment"
	sourceScheduled   = "scheduled"
	sourceAuto        = "auto"
	sourceNews        = "news"
)

// scheduleChoices are the delay options offered after an upload, in minutes.
var scheduleChoices = []int{30, 60}

// blockedDomains are substrings that mark a message as spam to be deleted.
var blockedDomains = []string{"ordershunter.ru"}

const uploadFormatHint = "Por favor, envía la información de la película en este formato:\n" +
	"Título (Año) | Nombre_1, Nombre_2 | Enlace_de_la_película"

// Orchestrator coordinates the conversation engine, the catalog, the request
// correlator, and the publication pipeline.
type Orchestrator struct {
	Telegram      config.TelegramConfig
	Messenger     Messenger
	Metadata      Metadata
	Catalog       *services.CatalogService
	Requests      *services.RequestService
	Conversations *Conversations
	Queue         JobQueue
	Replacer      *Replacer
	Log           zerolog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators together.
func NewOrchestrator(
	tg config.TelegramConfig,
	m Messenger,
	meta Metadata,
	catalog *services.CatalogService,
	requests *services.RequestService,
	queue JobQueue,
	replacer *Replacer,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		Telegram:      tg,
		Messenger:     m,
		Metadata:      meta,
		Catalog:       catalog,
		Requests:      requests,
		Conversations: NewConversations(),
		Queue:         queue,
		Replacer:      replacer,
		Log:           log.With().Str("component", "orchestrator").Logger(),
	}
}

// isAdmin reports whether the user is the single static administrator.
func (o *Orchestrator) isAdmin(userID int64) bool {
	return userID == o.Telegram.AdminID
}

// HandleUpdate dispatches one inbound update. Failures are logged and
// answered conversationally; they never propagate to the webhook, which
// acknowledges every update exactly once.
func (o *Orchestrator) HandleUpdate(ctx context.Context, u *telegram.Update) {
	switch {
	case u.Message != nil:
		o.handleMessage(ctx, u.Message)
	case u.CallbackQuery != nil:
		o.handleCallback(ctx, u.CallbackQuery)
	}
}

// ---- message routing ----

func (o *Orchestrator) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	if isSpam(msg.Text) {
		if err := o.Messenger.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
			o.Log.Warn().Err(err).Int64("message_id", msg.MessageID).Msg("could not delete spam message")
		}
		return
	}

	switch msg.Text {
	case "/start":
		o.sendStartMenu(ctx, msg)
		return
	case btnAddMovie:
		if !o.requireAdmin(ctx, msg) {
			return
		}
		o.Conversations.Set(userID, domain.StateAwaitingMovieUpload, domain.ConversationContext{})
		o.reply(ctx, msg.Chat.ID, uploadFormatHint, nil)
		return
	case btnViewCatalog:
		if !o.requireAdmin(ctx, msg) {
			return
		}
		o.sendCatalogListing(ctx, msg.Chat.ID)
		return
	case btnAutoConfig:
		if !o.requireAdmin(ctx, msg) {
			return
		}
		o.sendAutoPostMenu(ctx, msg.Chat.ID)
		return
	}

	state, stateCtx := o.Conversations.Get(userID)
	switch state {
	case domain.StateAwaitingMovieUpload:
		o.handleUpload(ctx, msg, stateCtx)
	case domain.StateAwaitingMovieName:
		o.handleMovieRequest(ctx, msg)
	case domain.StateAwaitingRequestedMovieLink:
		o.handleFulfillmentLink(ctx, msg, stateCtx)
	case domain.StateIdle:
		// Unprompted text outside any dialog is ignored.
	}
}

// sendStartMenu greets the user with the keyboard matching their role.
func (o *Orchestrator) sendStartMenu(ctx context.Context, msg *telegram.Message) {
	if o.isAdmin(msg.From.ID) {
		kb := &telegram.ReplyKeyboardMarkup{
			Keyboard: [][]telegram.KeyboardButton{
				{{Text: btnAddMovie}, {Text: btnViewCatalog}},
				{{Text: btnAutoConfig}},
			},
			ResizeKeyboard: true,
		}
		o.reply(ctx, msg.Chat.ID,
			"¡Hola, Administrador! Elige una opción:\n\n"+
				"➕ Agregar película: agrega una nueva película a la base de datos.\n"+
				"📋 Ver películas: muestra la lista de películas agregadas.\n"+
				"⚙️ Configuración auto-publicación: cambia la cantidad de publicaciones automáticas al día.",
			&telegram.SendOptions{ReplyMarkup: kb})
		return
	}

	kb := telegram.InlineRow(telegram.InlineKeyboardButton{
		Text: "📽️ Pedir una película", CallbackData: cbAskForMovie,
	})
	o.reply(ctx, msg.Chat.ID,
		"¡Hola! Soy un bot que te ayuda a encontrar tus películas favoritas.\n\n"+
			"🎬 Pulsa el botón de abajo para solicitar una película. Si está en mi base de datos, "+
			"la publicaré al instante en el canal.",
		&telegram.SendOptions{ReplyMarkup: kb})
}

// requireAdmin rejects an admin-only trigger from anybody else.
func (o *Orchestrator) requireAdmin(ctx context.Context, msg *telegram.Message) bool {
	if o.isAdmin(msg.From.ID) {
		return true
	}
	o.reply(ctx, msg.Chat.ID, "No tienes permiso para esta acción.", nil)
	return false
}

func (o *Orchestrator) sendCatalogListing(ctx context.Context, chatID int64) {
	records, err := o.Catalog.All(ctx)
	if err != nil {
		o.Log.Error().Err(err).Msg("catalog listing failed")
		o.reply(ctx, chatID, "Ocurrió un error al leer la base de datos.", nil)
		return
	}
	o.reply(ctx, chatID, BuildCatalogListing(records), nil)
}

func (o *Orchestrator) sendAutoPostMenu(ctx context.Context, chatID int64) {
	buttons := make([]telegram.InlineKeyboardButton, 0, 4)
	for _, n := range []int{2, 4, 6, 8} {
		buttons = append(buttons, telegram.InlineKeyboardButton{
			Text:         fmt.Sprintf("%d películas al día", n),
			CallbackData: fmt.Sprintf("%s%d", cbSetAutoPrefix, n),
		})
	}
	o.reply(ctx, chatID,
		"Elige cuántas películas quieres que se publiquen automáticamente cada día:",
		&telegram.SendOptions{ReplyMarkup: telegram.InlineColumn(buttons...)})
}

// ---- admin upload flow ----

// handleUpload processes the structured upload line. On validation failure
// the state is retained so the admin can resend; on metadata miss the state
// is also retained. A successful upsert returns the admin to Idle and offers
// publish actions, or completes a pending request when the dialog carries a
// requested title.
func (o *Orchestrator) handleUpload(ctx context.Context, msg *telegram.Message, stateCtx domain.ConversationContext) {
	if !o.isAdmin(msg.From.ID) {
		o.Conversations.Clear(msg.From.ID)
		o.reply(ctx, msg.Chat.ID, "No tienes permiso para usar esta función.", nil)
		return
	}

	up, err := ParseUpload(msg.Text)
	if err != nil {
		// State retained: no Clear, no catalog mutation.
		o.reply(ctx, msg.Chat.ID, "Formato incorrecto. "+uploadFormatHint, nil)
		return
	}

	o.reply(ctx, msg.Chat.ID, fmt.Sprintf("Buscando '%s' en TMDB...", up.Title), nil)

	externalID, err := o.Metadata.SearchMovie(ctx, up.Title, up.Year)
	if err != nil {
		if errors.Is(err, tmdb.ErrNoResults) {
			o.reply(ctx, msg.Chat.ID,
				fmt.Sprintf("No se pudo encontrar la película '%s' en TMDB. Asegúrate de escribir el título correctamente.", up.Title), nil)
		} else {
			o.reply(ctx, msg.Chat.ID, "El servicio de metadatos no está disponible. Intenta de nuevo en unos minutos.", nil)
		}
		return
	}

	rec, err := o.Catalog.Upsert(ctx, up.Title, up.Aliases, externalID, up.Link)
	if err != nil {
		o.Log.Error().Err(err).Str("title", up.Title).Msg("catalog upsert failed")
		o.reply(ctx, msg.Chat.ID, "Ocurrió un error al guardar la película. Inténtalo de nuevo.", nil)
		return
	}
	o.Conversations.Clear(msg.From.ID)

	// Fulfillment of a recorded request: publish and notify immediately.
	if stateCtx.RequestedTitle != "" {
		o.completeFulfillment(ctx, msg.Chat.ID, rec, stateCtx.RequestedTitle)
		return
	}

	kb := telegram.InlineColumn(
		telegram.InlineKeyboardButton{Text: "➕ Agregar otra película", CallbackData: cbAddAgain},
		telegram.InlineKeyboardButton{Text: "🎬 Publicar ahora", CallbackData: fmt.Sprintf("%s%d", cbPublishNowPrefix, rec.ExternalID)},
		telegram.InlineKeyboardButton{Text: "⏰ Programar publicación", CallbackData: fmt.Sprintf("%s%d", cbScheduleMenu, rec.ExternalID)},
	)
	o.reply(ctx, msg.Chat.ID, "✅ Tu película fue agregada correctamente. ¿Qué quieres hacer ahora?",
		&telegram.SendOptions{ReplyMarkup: kb})
}

// completeFulfillment publishes a just-upserted record and notifies the
// requester recorded for requestedTitle, exactly once.
func (o *Orchestrator) completeFulfillment(ctx context.Context, adminChatID int64, rec *domain.MovieRecord, requestedTitle string) {
	if err := o.publishRecord(ctx, rec, sourceFulfillment); err != nil {
		o.reply(ctx, adminChatID, "Ocurrió un error al publicar la película, pero fue agregada a la base de datos.", nil)
		return
	}
	o.reply(ctx, adminChatID, "✅ Película agregada y publicada con éxito en el canal.", nil)
	o.notifyRequester(ctx, requestedTitle)
}

// notifyRequester resolves the pending request for a title and messages the
// requester. Absence of a mapping means nobody is owed a notification.
func (o *Orchestrator) notifyRequester(ctx context.Context, title string) {
	pending, err := o.Requests.Resolve(ctx, title)
	if err != nil {
		o.Log.Error().Err(err).Str("title", title).Msg("pending request resolve failed")
		return
	}
	o.SyncPendingGauge(ctx)
	if pending == nil {
		return
	}

	text := fmt.Sprintf("✅ Tu película <b>%s</b> ha sido publicada.", title)
	if o.Telegram.ChannelInvite != "" {
		text += fmt.Sprintf(" <a href=\"%s\">Puedes verla aquí.</a>", o.Telegram.ChannelInvite)
	}
	if _, err := o.Messenger.SendMessage(ctx, pending.RequesterID, text, &telegram.SendOptions{ParseMode: "HTML"}); err != nil {
		o.Log.Warn().Err(err).Int64("requester_id", pending.RequesterID).Msg("requester notification failed")
	}
}

// ---- user request flow ----

// handleMovieRequest resolves a user's free-text title. Any outcome returns
// the user to Idle.
func (o *Orchestrator) handleMovieRequest(ctx context.Context, msg *telegram.Message) {
	o.Conversations.Clear(msg.From.ID)
	title := strings.TrimSpace(msg.Text)
	if title == "" {
		o.reply(ctx, msg.Chat.ID, "No entendí el nombre. Pulsa el botón e inténtalo de nuevo.", o.askAgainOptions())
		return
	}

	rec, err := o.Catalog.Lookup(ctx, title)
	switch {
	case err == nil:
		o.publishForRequester(ctx, msg.Chat.ID, rec)
	case errors.Is(err, services.ErrMovieNotFound):
		o.recordAndEscalate(ctx, msg, title)
	default:
		o.Log.Error().Err(err).Str("title", title).Msg("catalog lookup failed")
		o.reply(ctx, msg.Chat.ID, "Ocurrió un error. Inténtalo de nuevo más tarde.", nil)
	}
}

// publishForRequester republishes a matched catalog entry and points the
// requester at the channel. No PendingRequest is created on a match.
func (o *Orchestrator) publishForRequester(ctx context.Context, chatID int64, rec *domain.MovieRecord) {
	if err := o.publishRecord(ctx, rec, sourceRequest); err != nil {
		o.reply(ctx, chatID, "Ocurrió un error al publicar la película. Por favor, contacta al administrador.", nil)
		return
	}
	text := "✅ Tu película fue publicada en el canal principal."
	if o.Telegram.ChannelInvite != "" {
		text = fmt.Sprintf("✅ Tu película fue publicada en el canal principal. <a href=\"%s\">Haz clic aquí para verla.</a>", o.Telegram.ChannelInvite)
	}
	o.reply(ctx, chatID, text, o.askAgainOptions())
}

// recordAndEscalate stores the pending request and notifies the admin. When
// the fallback metadata search resolves the title, the admin gets a one-tap
// fulfillment shortcut; otherwise a manual "add requested movie" action.
func (o *Orchestrator) recordAndEscalate(ctx context.Context, msg *telegram.Message, title string) {
	var resolvedID *int64
	if id, err := o.Metadata.SearchMovie(ctx, title, 0); err == nil {
		resolvedID = &id
	} else if !errors.Is(err, tmdb.ErrNoResults) {
		o.Log.Warn().Err(err).Str("title", title).Msg("fallback metadata search failed")
	}

	if err := o.Requests.Record(ctx, title, msg.From.ID, msg.From.FullName(), resolvedID); err != nil {
		o.Log.Error().Err(err).Str("title", title).Msg("pending request record failed")
		o.reply(ctx, msg.Chat.ID, "Ocurrió un error al registrar tu solicitud. Inténtalo de nuevo.", nil)
		return
	}
	o.SyncPendingGauge(ctx)

	adminText := fmt.Sprintf("El usuario %s (@%s) ha solicitado la película: <b>%s</b>",
		msg.From.FullName(), msg.From.Username, title)
	var kb *telegram.InlineKeyboardMarkup
	if resolvedID != nil {
		adminText += fmt.Sprintf("\n\nℹ️ Se encontró en TMDB con ID: %d", *resolvedID)
		kb = telegram.InlineRow(telegram.InlineKeyboardButton{
			Text:         "📌 Publicar ahora esta película",
			CallbackData: fmt.Sprintf("%s%d", cbFulfillPrefix, *resolvedID),
		})
	} else {
		kb = telegram.InlineRow(telegram.InlineKeyboardButton{
			Text:         "➕ Agregar película solicitada",
			CallbackData: cbAddRequested + domain.CanonicalKey(title),
		})
	}
	if _, err := o.Messenger.SendMessage(ctx, o.Telegram.AdminID, adminText,
		&telegram.SendOptions{ParseMode: "HTML", ReplyMarkup: kb}); err != nil {
		o.Log.Warn().Err(err).Msg("admin escalation failed")
	}

	o.reply(ctx, msg.Chat.ID,
		"Esa película aún no está disponible, pero el administrador ha sido notificado de tu solicitud. ¡Pronto estará lista!",
		o.askAgainOptions())
}

// handleFulfillmentLink completes a metadata-resolved fulfillment: the admin
// sends the playback link, the record is upserted under the metadata title
// with the requested title as alias, published, and the requester notified.
func (o *Orchestrator) handleFulfillmentLink(ctx context.Context, msg *telegram.Message, stateCtx domain.ConversationContext) {
	if !o.isAdmin(msg.From.ID) {
		o.Conversations.Clear(msg.From.ID)
		o.reply(ctx, msg.Chat.ID, "No tienes permiso para usar esta función.", nil)
		return
	}

	link := strings.TrimSpace(msg.Text)
	if link == "" {
		// State retained so the admin can resend the link.
		o.reply(ctx, msg.Chat.ID, "El enlace no puede estar vacío. Envía el enlace de la película.", nil)
		return
	}

	details, err := o.Metadata.MovieDetails(ctx, stateCtx.ExternalID)
	if err != nil {
		o.reply(ctx, msg.Chat.ID, "No se pudo obtener la información de la película desde TMDB. Inténtalo de nuevo.", nil)
		return
	}

	rec, err := o.Catalog.Upsert(ctx, details.Title, []string{stateCtx.RequestedTitle}, stateCtx.ExternalID, link)
	if err != nil {
		o.Log.Error().Err(err).Str("title", details.Title).Msg("fulfillment upsert failed")
		o.reply(ctx, msg.Chat.ID, "Ocurrió un error al guardar la película. Inténtalo de nuevo.", nil)
		return
	}
	o.Conversations.Clear(msg.From.ID)
	o.completeFulfillment(ctx, msg.Chat.ID, rec, stateCtx.RequestedTitle)
}

// ---- callback routing ----

func (o *Orchestrator) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if cb.From == nil {
		return
	}
	data := cb.Data

	switch {
	case data == cbAskForMovie:
		o.ack(ctx, cb, "", false)
		o.Conversations.Set(cb.From.ID, domain.StateAwaitingMovieName, domain.ConversationContext{})
		if cb.Message != nil {
			o.reply(ctx, cb.Message.Chat.ID, "Por favor, escribe el nombre correcto de tu película.", nil)
		}

	case data == cbAddAgain:
		if !o.callbackAdmin(ctx, cb) {
			return
		}
		o.ack(ctx, cb, "", false)
		o.Conversations.Set(cb.From.ID, domain.StateAwaitingMovieUpload, domain.ConversationContext{})
		if cb.Message != nil {
			o.reply(ctx, cb.Message.Chat.ID, uploadFormatHint, nil)
		}

	case strings.HasPrefix(data, cbSetAutoPrefix):
		o.handleSetAutoPost(ctx, cb, strings.TrimPrefix(data, cbSetAutoPrefix))

	case strings.HasPrefix(data, cbPublishNowPrefix):
		o.handlePublishNow(ctx, cb, strings.TrimPrefix(data, cbPublishNowPrefix))

	case strings.HasPrefix(data, cbScheduleMenu):
		o.handleScheduleMenu(ctx, cb, strings.TrimPrefix(data, cbScheduleMenu))

	case strings.HasPrefix(data, cbSchedulePrefix):
		o.handleSchedule(ctx, cb, strings.TrimPrefix(data, cbSchedulePrefix))

	case strings.HasPrefix(data, cbFulfillPrefix):
		o.handleFulfillShortcut(ctx, cb, strings.TrimPrefix(data, cbFulfillPrefix))

	case strings.HasPrefix(data, cbAddRequested):
		o.handleAddRequested(ctx, cb, strings.TrimPrefix(data, cbAddRequested))

	default:
		o.ack(ctx, cb, "", false)
	}
}

// callbackAdmin rejects admin-only buttons pressed by anybody else.
func (o *Orchestrator) callbackAdmin(ctx context.Context, cb *telegram.CallbackQuery) bool {
	if o.isAdmin(cb.From.ID) {
		return true
	}
	o.ack(ctx, cb, "No tienes permiso para esta acción.", false)
	return false
}

func (o *Orchestrator) handleSetAutoPost(ctx context.Context, cb *telegram.CallbackQuery, raw string) {
	if !o.callbackAdmin(ctx, cb) {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !config.ValidAutoPostCount(n) {
		o.ack(ctx, cb, "Cantidad no válida.", true)
		return
	}
	o.Queue.SetPostsPerDay(n)
	o.ack(ctx, cb, fmt.Sprintf("Publicación automática configurada para %d películas al día.", n), false)
	if cb.Message != nil {
		if err := o.Messenger.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID,
			fmt.Sprintf("✅ Publicación automática configurada para %d películas al día.", n)); err != nil {
			o.Log.Warn().Err(err).Msg("auto-post confirmation edit failed")
		}
	}
}

func (o *Orchestrator) handlePublishNow(ctx context.Context, cb *telegram.CallbackQuery, raw string) {
	if !o.callbackAdmin(ctx, cb) {
		return
	}
	externalID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		o.ack(ctx, cb, "Identificador no válido.", true)
		return
	}

	rec, err := o.Catalog.ByExternalID(ctx, externalID)
	if err != nil {
		o.ack(ctx, cb, "Película no encontrada en la base de datos.", true)
		return
	}

	if err := o.publishRecord(ctx, rec, sourceImmediate); err != nil {
		o.ack(ctx, cb, "Ocurrió un error al publicar la película.", true)
		return
	}
	o.ack(ctx, cb, "✅ Película publicada con éxito.", true)
	if cb.Message != nil {
		if err := o.Messenger.DeleteMessage(ctx, cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
			o.Log.Warn().Err(err).Msg("could not delete action prompt")
		}
	}
}

func (o *Orchestrator) handleScheduleMenu(ctx context.Context, cb *telegram.CallbackQuery, raw string) {
	if !o.callbackAdmin(ctx, cb) {
		return
	}
	buttons := make([]telegram.InlineKeyboardButton, 0, len(scheduleChoices))
	for _, mins := range scheduleChoices {
		label := fmt.Sprintf("En %d minutos", mins)
		if mins%60 == 0 {
			label = fmt.Sprintf("En %d hora", mins/60)
			if mins > 60 {
				label += "s"
			}
		}
		buttons = append(buttons, telegram.InlineKeyboardButton{
			Text:         label,
			CallbackData: fmt.Sprintf("%s%d_%s", cbSchedulePrefix, mins, raw),
		})
	}
	o.ack(ctx, cb, "", false)
	if cb.Message != nil {
		o.reply(ctx, cb.Message.Chat.ID, "Elige cuándo quieres programar la publicación:",
			&telegram.SendOptions{ReplyMarkup: telegram.InlineColumn(buttons...)})
		if err := o.Messenger.DeleteMessage(ctx, cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
			o.Log.Warn().Err(err).Msg("could not delete action prompt")
		}
	}
}

func (o *Orchestrator) handleSchedule(ctx context.Context, cb *telegram.CallbackQuery, raw string) {
	if !o.callbackAdmin(ctx, cb) {
		return
	}
	minsStr, idStr, ok := strings.Cut(raw, "_")
	if !ok {
		o.ack(ctx, cb, "Opción no válida.", true)
		return
	}
	mins, err1 := strconv.Atoi(minsStr)
	externalID, err2 := strconv.ParseInt(idStr, 10, 64)
	if err1 != nil || err2 != nil || mins <= 0 {
		o.ack(ctx, cb, "Opción no válida.", true)
		return
	}

	rec, err := o.Catalog.ByExternalID(ctx, externalID)
	if err != nil {
		o.ack(ctx, cb, "Película no encontrada en la base de datos.", true)
		return
	}

	o.Queue.Enqueue(domain.ScheduledJob{
		MovieKey:   rec.Key,
		Delay:      time.Duration(mins) * time.Minute,
		EnqueuedAt: time.Now(),
	})
	o.ack(ctx, cb, fmt.Sprintf("✅ Publicación programada para dentro de %d minutos.", mins), true)
	if cb.Message != nil {
		if err := o.Messenger.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID,
			"✅ Película programada para publicación."); err != nil {
			o.Log.Warn().Err(err).Msg("schedule confirmation edit failed")
		}
	}
}

// handleFulfillShortcut starts the link dialog for a request the fallback
// search already resolved. The pending request is located by external id to
// recover the requested title; it stays recorded until the publish succeeds.
func (o *Orchestrator) handleFulfillShortcut(ctx context.Context, cb *telegram.CallbackQuery, raw string) {
	if !o.callbackAdmin(ctx, cb) {
		return
	}
	externalID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		o.ack(ctx, cb, "Identificador no válido.", true)
		return
	}

	requestedTitle := ""
	if pending, err := o.Requests.Pending(ctx); err == nil {
		for i := range pending {
			if pending[i].ExternalID != nil && *pending[i].ExternalID == externalID {
				requestedTitle = pending[i].Title
				break
			}
		}
	}
	if requestedTitle == "" {
		o.ack(ctx, cb, "La solicitud ya no está pendiente.", true)
		return
	}

	o.Conversations.Set(cb.From.ID, domain.StateAwaitingRequestedMovieLink, domain.ConversationContext{
		RequestedTitle: requestedTitle,
		ExternalID:     externalID,
	})
	o.ack(ctx, cb, "", false)
	if cb.Message != nil {
		o.reply(ctx, cb.Message.Chat.ID,
			fmt.Sprintf("Por favor, envía el enlace de la película '%s' para publicarla.", requestedTitle), nil)
	}
}

// handleAddRequested starts the manual upload dialog carrying the requested
// title, used when the fallback search found nothing.
func (o *Orchestrator) handleAddRequested(ctx context.Context, cb *telegram.CallbackQuery, requestedTitle string) {
	if !o.callbackAdmin(ctx, cb) {
		return
	}
	o.Conversations.Set(cb.From.ID, domain.StateAwaitingMovieUpload, domain.ConversationContext{
		RequestedTitle: requestedTitle,
	})
	o.ack(ctx, cb, "", false)
	if cb.Message != nil {
		o.reply(ctx, cb.Message.Chat.ID,
			fmt.Sprintf("Por favor, envía la información de la película '%s'.\n%s", requestedTitle, uploadFormatHint), nil)
	}
}

// ---- publication ----

// publishRecord fetches current metadata for a record and hands it to the
// post replacer. A failure at either step counts one failed attempt and is
// not retried here.
func (o *Orchestrator) publishRecord(ctx context.Context, rec *domain.MovieRecord, source string) error {
	details, err := o.Metadata.MovieDetails(ctx, rec.ExternalID)
	if err != nil {
		postFailures.Inc()
		o.Log.Error().Err(err).Str("key", rec.Key).Msg("metadata fetch failed before publish")
		return err
	}

	post := Post{
		Caption:   BuildPostCaption(details, rec.Link),
		PosterURL: o.Metadata.PosterURL(details.PosterPath),
		Markup:    ChannelKeyboard(o.Telegram.RequestBotURL),
	}
	if _, err := o.Replacer.Replace(ctx, rec, post); err != nil {
		postFailures.Inc()
		return err
	}
	postsPublished.WithLabelValues(source).Inc()
	o.Log.Info().Str("key", rec.Key).Str("source", source).Msg("channel post published")
	return nil
}

// PublishScheduled publishes a queued job's record. Part of the scheduler's
// Publisher contract.
func (o *Orchestrator) PublishScheduled(ctx context.Context, key string) error {
	return o.publishKey(ctx, key, sourceScheduled)
}

// PublishAuto publishes the periodic rotation pick. Part of the scheduler's
// Publisher contract.
func (o *Orchestrator) PublishAuto(ctx context.Context, key string) error {
	return o.publishKey(ctx, key, sourceAuto)
}

func (o *Orchestrator) publishKey(ctx context.Context, key, source string) error {
	rec, err := o.Catalog.Lookup(ctx, key)
	if err != nil {
		o.Log.Error().Err(err).Str("key", key).Msg("publish target missing from catalog")
		return err
	}
	return o.publishRecord(ctx, rec, source)
}

// PublishPopularNews posts one random currently-popular movie to the channel.
// News posts are not catalog records, so the replacer is not involved.
func (o *Orchestrator) PublishPopularNews(ctx context.Context) error {
	popular, err := o.Metadata.PopularMovies(ctx)
	if err != nil {
		o.Log.Warn().Err(err).Msg("popular movies fetch failed")
		return err
	}
	if len(popular) == 0 {
		return tmdb.ErrNoResults
	}
	pick := popular[rand.N(len(popular))]

	caption := BuildNewsCaption(&pick, o.Telegram.RequestBotURL)
	opts := &telegram.SendOptions{ParseMode: "HTML"}
	if posterURL := o.Metadata.PosterURL(pick.PosterPath); posterURL != "" {
		_, err = o.Messenger.SendPhoto(ctx, o.Telegram.ChannelID, posterURL, caption, opts)
	} else {
		_, err = o.Messenger.SendMessage(ctx, o.Telegram.ChannelID, caption, opts)
	}
	if err != nil {
		postFailures.Inc()
		return err
	}
	postsPublished.WithLabelValues(sourceNews).Inc()
	o.Log.Info().Str("title", pick.Title).Msg("popular-movie news posted")
	return nil
}

// AnnounceStartup posts a best-effort "bot started" notice to the channel.
func (o *Orchestrator) AnnounceStartup(ctx context.Context) {
	if _, err := o.Messenger.SendMessage(ctx, o.Telegram.ChannelID, "Bot iniciado ✅", nil); err != nil {
		o.Log.Warn().Err(err).Msg("startup notice failed")
	}
}

// ---- small helpers ----

// reply sends a message and logs (rather than propagates) a delivery failure.
func (o *Orchestrator) reply(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) {
	if _, err := o.Messenger.SendMessage(ctx, chatID, text, opts); err != nil {
		o.Log.Warn().Err(err).Int64("chat_id", chatID).Msg("reply delivery failed")
	}
}

// ack answers a callback query, logging a failure.
func (o *Orchestrator) ack(ctx context.Context, cb *telegram.CallbackQuery, text string, alert bool) {
	if err := o.Messenger.AnswerCallbackQuery(ctx, cb.ID, text, alert); err != nil {
		o.Log.Warn().Err(err).Msg("callback ack failed")
	}
}

// askAgainOptions is the "request another movie" keyboard shown after a
// request resolves either way.
func (o *Orchestrator) askAgainOptions() *telegram.SendOptions {
	return &telegram.SendOptions{
		ParseMode: "HTML",
		ReplyMarkup: telegram.InlineRow(telegram.InlineKeyboardButton{
			Text: "📽️ Pedir otra película", CallbackData: cbAskForMovie,
		}),
	}
}

// SyncPendingGauge refreshes the pending-request gauge from the store. Called
// after every correlator mutation and once at startup, so the gauge survives
// restarts instead of reading zero until the next request.
func (o *Orchestrator) SyncPendingGauge(ctx context.Context) {
	if n, err := o.Requests.Count(ctx); err == nil {
		pendingRequests.Set(float64(n))
	}
}

// isSpam reports whether a message text contains a blocked domain.
func isSpam(text string) bool {
	for _, d := range blockedDomains {
		if strings.Contains(text, d) {
			return true
		}
	}
	return false
}
