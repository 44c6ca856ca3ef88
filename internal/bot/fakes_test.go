package bot

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/dmoran/go-movie-channel/internal/domain"
	"github.com/dmoran/go-movie-channel/internal/telegram"
)

// ----- Messenger fake -----

type sentText struct {
	ChatID int64
	Text   string
	Opts   *telegram.SendOptions
}

type sentPhoto struct {
	ChatID   int64
	PhotoURL string
	Caption  string
	Opts     *telegram.SendOptions
}

type deletedMsg struct {
	ChatID    int64
	MessageID int64
}

type editedMsg struct {
	ChatID    int64
	MessageID int64
	Text      string
}

type cbAnswer struct {
	ID    string
	Text  string
	Alert bool
}

type fakeMessenger struct {
	nextID int64

	texts   []sentText
	photos  []sentPhoto
	deleted []deletedMsg
	edits   []editedMsg
	answers []cbAnswer

	sendErr   error
	photoErr  error
	deleteErr error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (int64, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.texts = append(f.texts, sentText{ChatID: chatID, Text: text, Opts: opts})
	return f.nextID, nil
}

func (f *fakeMessenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts *telegram.SendOptions) (int64, error) {
	if f.photoErr != nil {
		return 0, f.photoErr
	}
	f.nextID++
	f.photos = append(f.photos, sentPhoto{ChatID: chatID, PhotoURL: photoURL, Caption: caption, Opts: opts})
	return f.nextID, nil
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, deletedMsg{ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *fakeMessenger) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	f.edits = append(f.edits, editedMsg{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	f.answers = append(f.answers, cbAnswer{ID: callbackID, Text: text, Alert: showAlert})
	return nil
}

// lastText returns the most recent text message sent to chatID, or nil.
func (f *fakeMessenger) lastText(chatID int64) *sentText {
	for i := len(f.texts) - 1; i >= 0; i-- {
		if f.texts[i].ChatID == chatID {
			return &f.texts[i]
		}
	}
	return nil
}

// ----- Metadata fake -----

type fakeMetadata struct {
	searchID  int64
	searchErr error
	searched  []string

	details    map[int64]*domain.MovieDetails
	detailsErr error

	popular    []domain.MovieDetails
	popularErr error
}

func (f *fakeMetadata) SearchMovie(ctx context.Context, title string, year int) (int64, error) {
	f.searched = append(f.searched, title)
	if f.searchErr != nil {
		return 0, f.searchErr
	}
	return f.searchID, nil
}

func (f *fakeMetadata) MovieDetails(ctx context.Context, externalID int64) (*domain.MovieDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	if d, ok := f.details[externalID]; ok {
		return d, nil
	}
	return &domain.MovieDetails{ID: externalID, Title: "Stub", VoteAverage: 7}, nil
}

func (f *fakeMetadata) PopularMovies(ctx context.Context) ([]domain.MovieDetails, error) {
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	return f.popular, nil
}

func (f *fakeMetadata) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return "https://img.test" + posterPath
}

// ----- JobQueue fake -----

type fakeQueue struct {
	jobs        []domain.ScheduledJob
	postsPerDay int
}

func (f *fakeQueue) Enqueue(job domain.ScheduledJob) { f.jobs = append(f.jobs, job) }
func (f *fakeQueue) SetPostsPerDay(n int)            { f.postsPerDay = n }

// ----- In-memory repositories backing the real services -----

type memMovieRepo struct {
	byKey map[string]*domain.MovieRecord
}

func newMemMovieRepo(records ...*domain.MovieRecord) *memMovieRepo {
	r := &memMovieRepo{byKey: map[string]*domain.MovieRecord{}}
	for _, m := range records {
		r.byKey[m.Key] = m
	}
	return r
}

func (r *memMovieRepo) GetMovie(ctx context.Context, db *gorm.DB, key string) (*domain.MovieRecord, error) {
	if m, ok := r.byKey[key]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memMovieRepo) GetMovieByExternalID(ctx context.Context, db *gorm.DB, externalID int64) (*domain.MovieRecord, error) {
	for _, m := range r.byKey {
		if m.ExternalID == externalID {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memMovieRepo) SaveMovie(ctx context.Context, db *gorm.DB, m *domain.MovieRecord) error {
	r.byKey[m.Key] = m
	return nil
}

func (r *memMovieRepo) ListMovies(ctx context.Context, db *gorm.DB) ([]domain.MovieRecord, error) {
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

func (r *memMovieRepo) CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	return int64(len(r.byKey)), nil
}

func (r *memMovieRepo) ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MovieRecord, error) {
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

func (r *memMovieRepo) SetLastMessageID(ctx context.Context, db *gorm.DB, key string, messageID *int64) error {
	if m, ok := r.byKey[key]; ok {
		m.LastMessageID = messageID
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *memMovieRepo) DeleteMovie(ctx context.Context, db *gorm.DB, key string) error {
	if _, ok := r.byKey[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byKey, key)
	return nil
}

type memRequestRepo struct {
	byTitle map[string]*domain.PendingRequest
	order   []string
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{byTitle: map[string]*domain.PendingRequest{}}
}

func (r *memRequestRepo) SaveRequest(ctx context.Context, db *gorm.DB, req *domain.PendingRequest) error {
	if _, ok := r.byTitle[req.Title]; !ok {
		r.order = append(r.order, req.Title)
	}
	r.byTitle[req.Title] = req
	return nil
}

func (r *memRequestRepo) TakeRequest(ctx context.Context, db *gorm.DB, title string) (*domain.PendingRequest, error) {
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

func (r *memRequestRepo) ListRequests(ctx context.Context, db *gorm.DB) ([]domain.PendingRequest, error) {
	out := make([]domain.PendingRequest, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, *r.byTitle[t])
	}
	return out, nil
}

func (r *memRequestRepo) CountRequests(ctx context.Context, db *gorm.DB) (int64, error) {
	return int64(len(r.byTitle)), nil
}
