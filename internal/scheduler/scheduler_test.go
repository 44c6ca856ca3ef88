package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmoran/go-movie-channel/internal/config"
	"github.com/dmoran/go-movie-channel/internal/domain"
)

// ----- fakes -----

type publishCall struct {
	Kind string // "scheduled", "auto", "news"
	Key  string
	At   time.Time
}

type fakePublisher struct {
	calls []publishCall
	errs  map[string]error // keyed by kind
	clock *fakeClock
}

func (p *fakePublisher) record(kind, key string) error {
	p.calls = append(p.calls, publishCall{Kind: kind, Key: key, At: p.clock.current})
	return p.errs[kind]
}

func (p *fakePublisher) PublishScheduled(ctx context.Context, key string) error {
	return p.record("scheduled", key)
}

func (p *fakePublisher) PublishAuto(ctx context.Context, key string) error {
	return p.record("auto", key)
}

func (p *fakePublisher) PublishPopularNews(ctx context.Context) error {
	return p.record("news", "")
}

type fakeCatalog struct {
	records []domain.MovieRecord
	err     error
}

func (c *fakeCatalog) All(ctx context.Context) ([]domain.MovieRecord, error) {
	return c.records, c.err
}

// fakeClock replaces the now/sleep seams: sleeping advances virtual time
// instantly.
type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) {
	c.slept = append(c.slept, d)
	c.current = c.current.Add(d)
}

func newTestScheduler(catalog *fakeCatalog) (*Scheduler, *fakePublisher, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	pub := &fakePublisher{errs: map[string]error{}, clock: clock}
	s := New(config.PublishConfig{
		AutoPostsPerDay:   4,
		RecentHistorySize: 2,
		SchedulerTick:     time.Second,
		NewsInterval:      24 * time.Hour,
	}, pub, catalog, zerolog.Nop())
	s.now = clock.now
	s.sleep = clock.sleep
	s.pick = func(n int) int { return 0 } // deterministic: first candidate
	return s, pub, clock
}

// ----- history -----

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Add("a")
	h.Add("b")
	h.Add("c")

	if h.Contains("a") {
		t.Error("oldest entry survived past capacity")
	}
	if !h.Contains("b") || !h.Contains("c") {
		t.Error("recent entries evicted prematurely")
	}
	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
}

func TestHistory_MinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Add("a")
	h.Add("b")
	if h.Contains("a") || !h.Contains("b") {
		t.Errorf("capacity floor broken: %+v", h.keys)
	}
}

// ----- delayed queue -----

func TestDrainJobs_FIFOWithBlockingWait(t *testing.T) {
	s, pub, clock := newTestScheduler(&fakeCatalog{})
	t0 := clock.current

	// Second job is due sooner than the first; FIFO order must still hold.
	s.Enqueue(domain.ScheduledJob{MovieKey: "first", Delay: time.Hour, EnqueuedAt: t0})
	s.Enqueue(domain.ScheduledJob{MovieKey: "second", Delay: time.Minute, EnqueuedAt: t0})

	s.drainJobs(context.Background())

	if len(pub.calls) != 2 {
		t.Fatalf("calls = %+v, want 2", pub.calls)
	}
	if pub.calls[0].Key != "first" || pub.calls[1].Key != "second" {
		t.Errorf("order = %s, %s; want first, second", pub.calls[0].Key, pub.calls[1].Key)
	}
	// The first job blocks until its hour elapses; the second is then
	// already overdue and publishes immediately.
	if got := pub.calls[0].At.Sub(t0); got != time.Hour {
		t.Errorf("first published after %v, want 1h", got)
	}
	if got := pub.calls[1].At.Sub(t0); got != time.Hour {
		t.Errorf("second published after %v, want 1h (no extra wait)", got)
	}
}

func TestDrainJobs_DelayFromEnqueueTime(t *testing.T) {
	s, pub, clock := newTestScheduler(&fakeCatalog{})
	t0 := clock.current

	s.Enqueue(domain.ScheduledJob{MovieKey: "m", Delay: 30 * time.Minute, EnqueuedAt: t0})
	clock.current = t0.Add(10 * time.Minute) // loop picks the job up late

	s.drainJobs(context.Background())

	if len(clock.slept) != 1 || clock.slept[0] != 20*time.Minute {
		t.Errorf("slept = %v, want one 20m wait", clock.slept)
	}
	if got := pub.calls[0].At.Sub(t0); got != 30*time.Minute {
		t.Errorf("published after %v, want 30m from enqueue", got)
	}
}

func TestDrainJobs_FailedJobIsConsumed(t *testing.T) {
	s, pub, clock := newTestScheduler(&fakeCatalog{})
	pub.errs["scheduled"] = errors.New("send failed")

	s.Enqueue(domain.ScheduledJob{MovieKey: "m", Delay: 0, EnqueuedAt: clock.current})
	s.drainJobs(context.Background())

	if len(pub.calls) != 1 {
		t.Fatalf("calls = %+v", pub.calls)
	}
	// The job is gone; a second drain publishes nothing.
	s.drainJobs(context.Background())
	if len(pub.calls) != 1 {
		t.Errorf("failed job was retried: %+v", pub.calls)
	}
}

func TestDrainJobs_CancelledWhileWaiting(t *testing.T) {
	s, pub, clock := newTestScheduler(&fakeCatalog{})
	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(c context.Context, d time.Duration) {
		clock.sleep(c, d)
		cancel()
	}

	s.Enqueue(domain.ScheduledJob{MovieKey: "m", Delay: time.Hour, EnqueuedAt: clock.current})
	s.drainJobs(ctx)

	if len(pub.calls) != 0 {
		t.Errorf("published after cancellation: %+v", pub.calls)
	}
}

// ----- automatic rotation -----

func catalogOf(keys ...string) *fakeCatalog {
	c := &fakeCatalog{}
	for _, k := range keys {
		c.records = append(c.records, domain.MovieRecord{Key: k})
	}
	return c
}

func TestAutoPost_WaitsFullInterval(t *testing.T) {
	s, pub, clock := newTestScheduler(catalogOf("a"))
	s.lastAuto = clock.current

	s.maybeAutoPost(context.Background())
	if len(pub.calls) != 0 {
		t.Fatalf("published before the interval elapsed: %+v", pub.calls)
	}

	clock.current = clock.current.Add(6 * time.Hour) // 24h / 4
	s.maybeAutoPost(context.Background())
	if len(pub.calls) != 1 || pub.calls[0].Kind != "auto" {
		t.Fatalf("calls = %+v, want one auto post", pub.calls)
	}
}

func TestAutoPost_SkipsRecentKeys(t *testing.T) {
	s, pub, clock := newTestScheduler(catalogOf("a", "b", "c"))
	s.lastAuto = clock.current.Add(-7 * time.Hour)
	s.recent.Add("a")

	s.maybeAutoPost(context.Background())

	if len(pub.calls) != 1 || pub.calls[0].Key != "b" {
		t.Errorf("calls = %+v, want pick to skip the recent key", pub.calls)
	}
	if !s.recent.Contains("b") {
		t.Errorf("published key not added to the window")
	}
}

func TestAutoPost_ExhaustedWindowFallsBackToFullCatalog(t *testing.T) {
	s, pub, clock := newTestScheduler(catalogOf("a", "b"))
	s.lastAuto = clock.current.Add(-7 * time.Hour)
	s.recent.Add("a")
	s.recent.Add("b")

	s.maybeAutoPost(context.Background())

	if len(pub.calls) != 1 || pub.calls[0].Key != "a" {
		t.Errorf("calls = %+v, want fallback to the full catalog", pub.calls)
	}
}

func TestAutoPost_FailureDoesNotAdvance(t *testing.T) {
	s, pub, clock := newTestScheduler(catalogOf("a"))
	pub.errs["auto"] = errors.New("send failed")
	last := clock.current.Add(-7 * time.Hour)
	s.lastAuto = last

	s.maybeAutoPost(context.Background())

	if s.recent.Contains("a") {
		t.Errorf("failed publication entered the anti-repeat window")
	}
	if !s.lastAuto.Equal(last) {
		t.Errorf("cycle clock advanced on failure")
	}

	// Next tick retries.
	pub.errs["auto"] = nil
	s.maybeAutoPost(context.Background())
	if len(pub.calls) != 2 {
		t.Errorf("calls = %+v, want a retry", pub.calls)
	}
}

func TestAutoPost_EmptyCatalogIsNoop(t *testing.T) {
	s, pub, clock := newTestScheduler(&fakeCatalog{})
	s.lastAuto = clock.current.Add(-7 * time.Hour)

	s.maybeAutoPost(context.Background())
	if len(pub.calls) != 0 {
		t.Errorf("published from an empty catalog: %+v", pub.calls)
	}
}

func TestSetPostsPerDay_ChangesInterval(t *testing.T) {
	s, pub, clock := newTestScheduler(catalogOf("a"))
	s.SetPostsPerDay(8) // every 3h
	s.lastAuto = clock.current.Add(-4 * time.Hour)

	s.maybeAutoPost(context.Background())
	if len(pub.calls) != 1 {
		t.Errorf("calls = %+v, want the shorter interval to apply", pub.calls)
	}
}

func TestSetPostsPerDay_RejectsInvalid(t *testing.T) {
	s, _, _ := newTestScheduler(&fakeCatalog{})
	s.SetPostsPerDay(5)
	if s.postsPerDay != 4 {
		t.Errorf("postsPerDay = %d, want unchanged 4", s.postsPerDay)
	}
}

// ----- news -----

func TestNews_PostsEachInterval(t *testing.T) {
	s, pub, clock := newTestScheduler(&fakeCatalog{})
	s.lastNews = clock.current

	s.maybeNews(context.Background())
	if len(pub.calls) != 0 {
		t.Fatalf("news posted before the interval elapsed")
	}

	clock.current = clock.current.Add(24 * time.Hour)
	s.maybeNews(context.Background())
	if len(pub.calls) != 1 || pub.calls[0].Kind != "news" {
		t.Fatalf("calls = %+v, want one news post", pub.calls)
	}

	// Same interval, no second post.
	s.maybeNews(context.Background())
	if len(pub.calls) != 1 {
		t.Errorf("news posted twice in one interval")
	}
}

func TestNews_FailureRetriesNextTick(t *testing.T) {
	s, pub, clock := newTestScheduler(&fakeCatalog{})
	s.lastNews = clock.current.Add(-25 * time.Hour)
	pub.errs["news"] = errors.New("unavailable")

	s.maybeNews(context.Background())
	pub.errs["news"] = nil
	s.maybeNews(context.Background())

	if len(pub.calls) != 2 {
		t.Fatalf("calls = %+v, want failed attempt plus retry", pub.calls)
	}
}
