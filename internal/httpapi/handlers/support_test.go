package handlers

import (
	"context"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dmoran/go-movie-channel/internal/bot"
	"github.com/dmoran/go-movie-channel/internal/config"
	"github.com/dmoran/go-movie-channel/internal/domain"
	"github.com/dmoran/go-movie-channel/internal/services"
	"github.com/dmoran/go-movie-channel/internal/telegram"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubMessenger counts outbound traffic; the webhook tests only need to see
// that a handled update produced a reply.
type stubMessenger struct {
	sent int
}

func (s *stubMessenger) SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (int64, error) {
	s.sent++
	return int64(s.sent), nil
}

func (s *stubMessenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts *telegram.SendOptions) (int64, error) {
	s.sent++
	return int64(s.sent), nil
}

func (s *stubMessenger) DeleteMessage(ctx context.Context, chatID, messageID int64) error { return nil }

func (s *stubMessenger) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	return nil
}

func (s *stubMessenger) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	return nil
}

type stubMetadata struct{}

func (stubMetadata) SearchMovie(ctx context.Context, title string, year int) (int64, error) {
	return 1, nil
}

func (stubMetadata) MovieDetails(ctx context.Context, externalID int64) (*domain.MovieDetails, error) {
	return &domain.MovieDetails{ID: externalID, Title: "Stub"}, nil
}

func (stubMetadata) PopularMovies(ctx context.Context) ([]domain.MovieDetails, error) {
	return nil, nil
}

func (stubMetadata) PosterURL(posterPath string) string { return "" }

type stubQueue struct{}

func (stubQueue) Enqueue(job domain.ScheduledJob) {}
func (stubQueue) SetPostsPerDay(n int)            {}

// memMovies is an in-memory services.MovieRepo.
type memMovies struct {
	byKey map[string]*domain.MovieRecord
}

func newMemMovies(records ...*domain.MovieRecord) *memMovies {
	r := &memMovies{byKey: map[string]*domain.MovieRecord{}}
	for _, m := range records {
		r.byKey[m.Key] = m
	}
	return r
}

func (r *memMovies) GetMovie(ctx context.Context, db *gorm.DB, key string) (*domain.MovieRecord, error) {
	if m, ok := r.byKey[key]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memMovies) GetMovieByExternalID(ctx context.Context, db *gorm.DB, externalID int64) (*domain.MovieRecord, error) {
	for _, m := range r.byKey {
		if m.ExternalID == externalID {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memMovies) SaveMovie(ctx context.Context, db *gorm.DB, m *domain.MovieRecord) error {
	r.byKey[m.Key] = m
	return nil
}

func (r *memMovies) ListMovies(ctx context.Context, db *gorm.DB) ([]domain.MovieRecord, error) {
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.MovieRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, *r.byKey[k])
	}
	return out, nil
}

func (r *memMovies) CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	return int64(len(r.byKey)), nil
}

func (r *memMovies) ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MovieRecord, error) {
	all, _ := r.ListMovies(ctx, db)
	if offset >= len(all) {
		return []domain.MovieRecord{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memMovies) SetLastMessageID(ctx context.Context, db *gorm.DB, key string, messageID *int64) error {
	if m, ok := r.byKey[key]; ok {
		m.LastMessageID = messageID
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *memMovies) DeleteMovie(ctx context.Context, db *gorm.DB, key string) error {
	if _, ok := r.byKey[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byKey, key)
	return nil
}

// memRequests is an in-memory services.RequestRepo.
type memRequests struct {
	byTitle map[string]*domain.PendingRequest
	order   []string
}

func newMemRequests() *memRequests {
	return &memRequests{byTitle: map[string]*domain.PendingRequest{}}
}

func (r *memRequests) SaveRequest(ctx context.Context, db *gorm.DB, req *domain.PendingRequest) error {
	if _, ok := r.byTitle[req.Title]; !ok {
		r.order = append(r.order, req.Title)
	}
	r.byTitle[req.Title] = req
	return nil
}

func (r *memRequests) TakeRequest(ctx context.Context, db *gorm.DB, title string) (*domain.PendingRequest, error) {
	req, ok := r.byTitle[title]
	if !ok {
		return nil, nil
	}
	delete(r.byTitle, title)
	for i, t := range r.order {
		if t == title {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return req, nil
}

func (r *memRequests) ListRequests(ctx context.Context, db *gorm.DB) ([]domain.PendingRequest, error) {
	out := make([]domain.PendingRequest, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, *r.byTitle[t])
	}
	return out, nil
}

func (r *memRequests) CountRequests(ctx context.Context, db *gorm.DB) (int64, error) {
	return int64(len(r.byTitle)), nil
}

func newTestOrchestrator(m *stubMessenger) *bot.Orchestrator {
	catalog := services.NewCatalogService(nil, newMemMovies())
	requests := services.NewRequestService(nil, newMemRequests())
	tg := config.TelegramConfig{AdminID: 99, ChannelID: -100500}
	return bot.NewOrchestrator(tg, m, stubMetadata{}, catalog, requests, stubQueue{},
		bot.NewReplacer(m, catalog, -100500, zerolog.Nop()), zerolog.Nop())
}
