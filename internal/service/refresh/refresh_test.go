package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	internalrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/usecase"
	applogger "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
)

var refreshNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	name    string
	fetched atomic.Int32

	mu       sync.Mutex
	lastFrom time.Time
	lastTo   time.Time
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) window() (time.Time, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrom, s.lastTo
}

func (s *stubSource) Fetch(ctx context.Context, location string, from, to time.Time) ([]*models.Signal, error) {
	s.fetched.Add(1)
	s.mu.Lock()
	s.lastFrom, s.lastTo = from, to
	s.mu.Unlock()
	day := domrepo.DayOf(refreshNow)
	return []*models.Signal{
		{
			Source:    models.SourceWeather,
			Metric:    models.MetricKey(location, "weather"),
			Timestamp: day,
			Value:     68,
			Unit:      "index",
		},
		{
			// outside the physical range for weather, ingestion drops it
			Source:    models.SourceWeather,
			Metric:    models.MetricKey(location, "weather"),
			Timestamp: day.AddDate(0, 0, -1),
			Value:     5000,
		},
	}, nil
}

func newRefreshFixture(t *testing.T) (*internalrepo.MemorySignalStore, *stubSource, *FetchJob) {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := internalrepo.NewMemorySignalStore()
	ingestor := usecase.NewSignalIngestor(store, nil, nil, nil, usecase.IngestorConfig{
		RetentionDays: 365,
		Now:           func() time.Time { return refreshNow },
	})

	src := &stubSource{name: "weather"}
	job := NewFetchJob([]domrepo.SignalSource{src}, ingestor, log)
	return store, src, job
}

func TestFetchJobStoresValidSignals(t *testing.T) {
	store, src, job := newRefreshFixture(t)

	err := job.Handle(context.Background(), Payload{
		Provider: "weather",
		Location: "harborview",
		From:     "2026-03-08",
		To:       "2026-03-15",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := src.fetched.Load(); got != 1 {
		t.Fatalf("fetched = %d, want 1", got)
	}

	latest, err := store.Latest(context.Background(), "harborview/weather")
	if err != nil || latest == nil {
		t.Fatalf("stored signal missing: %v %v", latest, err)
	}
	if latest.Value != 68 {
		t.Errorf("value = %v, want 68", latest.Value)
	}

	day := domrepo.DayOf(refreshNow)
	stored, err := store.Range(context.Background(), "harborview/weather", day.AddDate(0, 0, -7), day)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("stored %d signals, want 1 (out-of-range row dropped)", len(stored))
	}
}

func TestFetchJobDecodesQueuedPayload(t *testing.T) {
	store, _, job := newRefreshFixture(t)

	// queued payloads arrive as generic maps after the JSON round trip
	err := job.Handle(context.Background(), map[string]interface{}{
		"provider": "weather",
		"location": "harborview",
		"from":     "2026-03-08",
		"to":       "2026-03-15",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if latest, _ := store.Latest(context.Background(), "harborview/weather"); latest == nil {
		t.Fatal("queued payload did not reach the store")
	}
}

func TestFetchJobUnknownProvider(t *testing.T) {
	_, _, job := newRefreshFixture(t)

	err := job.Handle(context.Background(), Payload{
		Provider: "tides",
		Location: "harborview",
		From:     "2026-03-08",
		To:       "2026-03-15",
	})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestSchedulerRunsFirstRoundInline(t *testing.T) {
	store, src, job := newRefreshFixture(t)
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	s := NewScheduler(job, []string{"weather"}, []string{"harborview"}, time.Hour, log,
		WithClock(func() time.Time { return refreshNow }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for src.fetched.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if src.fetched.Load() == 0 {
		t.Fatal("first round did not run")
	}
	if latest, _ := store.Latest(context.Background(), "harborview/weather"); latest == nil {
		t.Fatal("scheduler round did not store signals")
	}
}

func TestSchedulerWindowSpansForecastDays(t *testing.T) {
	_, src, job := newRefreshFixture(t)
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	s := NewScheduler(job, []string{"weather"}, []string{"harborview"}, time.Hour, log,
		WithClock(func() time.Time { return refreshNow }),
		WithLookbackDays(7),
		WithLookaheadDays(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for src.fetched.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	from, to := src.window()
	if got, want := from.Format("2006-01-02"), "2026-03-08"; got != want {
		t.Errorf("window start: got %s want %s", got, want)
	}
	// forecast providers need upcoming days, not just history
	if got, want := to.Format("2006-01-02"), "2026-03-17"; got != want {
		t.Errorf("window end: got %s want %s", got, want)
	}
}
