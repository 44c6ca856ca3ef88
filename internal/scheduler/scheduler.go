// Package scheduler runs the publication timing loop: a FIFO queue of
// delayed one-shot publications, the periodic catalog rotation with its
// anti-repeat window, and the recurring popular-movie news post.
//
// One goroutine owns the loop (Run); Enqueue and SetPostsPerDay are the only
// cross-goroutine entry points and are safe for concurrent use. Queued jobs
// are strictly FIFO: a job's delay is measured from its enqueue time, and a
// job that is not yet due blocks the jobs behind it.
package scheduler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dmoran/go-movie-channel/internal/config"
	"github.com/dmoran/go-movie-channel/internal/domain"
)

// Publisher executes the actual channel publications. The orchestrator
// implements it; declaring the contract here keeps this package free of the
// conversation machinery.
type Publisher interface {
	// PublishScheduled publishes the catalog record behind a queued job.
	PublishScheduled(ctx context.Context, key string) error

	// PublishAuto publishes the rotation pick.
	PublishAuto(ctx context.Context, key string) error

	// PublishPopularNews posts the recurring popular-movie news item.
	PublishPopularNews(ctx context.Context) error
}

// CatalogSource supplies the rotation candidates.
type CatalogSource interface {
	// All returns every catalog record.
	All(ctx context.Context) ([]domain.MovieRecord, error)
}

// queueDepth gauges the number of delayed publications waiting in the queue.
var queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "scheduled_jobs_pending",
	Help: "Number of delayed publication jobs waiting in the FIFO queue.",
})

func init() {
	prometheus.MustRegister(queueDepth)
}

// Scheduler drives delayed, automatic, and news publications.
type Scheduler struct {
	Publisher Publisher
	Catalog   CatalogSource
	Log       zerolog.Logger

	mu          sync.Mutex
	jobs        []domain.ScheduledJob
	postsPerDay int

	recent       *History
	tick         time.Duration
	newsInterval time.Duration
	lastAuto     time.Time
	lastNews     time.Time

	// Test seams.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
	pick  func(n int) int
}

// New constructs a Scheduler from the publish settings.
func New(cfg config.PublishConfig, p Publisher, c CatalogSource, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Publisher:    p,
		Catalog:      c,
		Log:          log.With().Str("component", "scheduler").Logger(),
		postsPerDay:  cfg.AutoPostsPerDay,
		recent:       NewHistory(cfg.RecentHistorySize),
		tick:         cfg.SchedulerTick,
		newsInterval: cfg.NewsInterval,
		now:          time.Now,
		sleep:        sleepCtx,
		pick:         rand.N[int],
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Enqueue appends a delayed publication job to the back of the queue.
func (s *Scheduler) Enqueue(job domain.ScheduledJob) {
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	depth := len(s.jobs)
	s.mu.Unlock()

	queueDepth.Set(float64(depth))
	s.Log.Info().Str("key", job.MovieKey).Dur("delay", job.Delay).Msg("publication scheduled")
}

// SetPostsPerDay retunes the automatic publication cadence. The new cadence
// applies from the next cycle; it does not reset the anti-repeat window.
func (s *Scheduler) SetPostsPerDay(n int) {
	if !config.ValidAutoPostCount(n) {
		return
	}
	s.mu.Lock()
	s.postsPerDay = n
	s.mu.Unlock()
	s.Log.Info().Int("posts_per_day", n).Msg("auto-post cadence changed")
}

// Run owns the timing loop until ctx is cancelled. The first automatic and
// news publications happen one full interval after startup, not immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.lastAuto = s.now()
	s.lastNews = s.now()
	s.Log.Info().Msg("scheduler started")

	for ctx.Err() == nil {
		s.drainJobs(ctx)
		s.maybeAutoPost(ctx)
		s.maybeNews(ctx)
		s.sleep(ctx, s.tick)
	}
	s.Log.Info().Msg("scheduler stopped")
}

// drainJobs pops and executes queued jobs in FIFO order. A job that is not
// yet due is waited for in place, deliberately holding back the jobs behind
// it. Every popped job is consumed whether its publication succeeds or not.
func (s *Scheduler) drainJobs(ctx context.Context) {
	for ctx.Err() == nil {
		job, ok := s.popJob()
		if !ok {
			return
		}

		if wait := job.Due().Sub(s.now()); wait > 0 {
			s.sleep(ctx, wait)
		}
		if ctx.Err() != nil {
			return
		}

		if err := s.Publisher.PublishScheduled(ctx, job.MovieKey); err != nil {
			s.Log.Error().Err(err).Str("key", job.MovieKey).Msg("scheduled publication failed")
		}
	}
}

func (s *Scheduler) popJob() (domain.ScheduledJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return domain.ScheduledJob{}, false
	}
	job := s.jobs[0]
	s.jobs = s.jobs[1:]
	queueDepth.Set(float64(len(s.jobs)))
	return job, true
}

// maybeAutoPost publishes one rotation pick when the cadence interval has
// elapsed. Candidates are catalog keys outside the anti-repeat window; when
// every key is inside it, the whole catalog becomes eligible again. On a
// failed publication neither the window nor the cycle clock advances, so the
// next tick retries.
func (s *Scheduler) maybeAutoPost(ctx context.Context) {
	s.mu.Lock()
	interval := 24 * time.Hour / time.Duration(s.postsPerDay)
	s.mu.Unlock()

	if s.now().Sub(s.lastAuto) < interval {
		return
	}

	records, err := s.Catalog.All(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("rotation candidate listing failed")
		return
	}
	if len(records) == 0 {
		return
	}

	candidates := make([]string, 0, len(records))
	for i := range records {
		if !s.recent.Contains(records[i].Key) {
			candidates = append(candidates, records[i].Key)
		}
	}
	if len(candidates) == 0 {
		for i := range records {
			candidates = append(candidates, records[i].Key)
		}
	}

	key := candidates[s.pick(len(candidates))]
	if err := s.Publisher.PublishAuto(ctx, key); err != nil {
		s.Log.Error().Err(err).Str("key", key).Msg("automatic publication failed")
		return
	}
	s.recent.Add(key)
	s.lastAuto = s.now()
}

// maybeNews posts the recurring popular-movie item when its interval has
// elapsed. A failed post is retried on the next tick.
func (s *Scheduler) maybeNews(ctx context.Context) {
	if s.now().Sub(s.lastNews) < s.newsInterval {
		return
	}
	if err := s.Publisher.PublishPopularNews(ctx); err != nil {
		s.Log.Warn().Err(err).Msg("news publication failed")
		return
	}
	s.lastNews = s.now()
}
