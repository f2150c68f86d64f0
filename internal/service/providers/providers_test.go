package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/cache"
)

func TestWeatherSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/daily" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("location"); got != "harborview" {
			t.Errorf("location = %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"days":[{"date":"2026-03-15","index":72.5},{"date":"bad","index":1},{"date":"2026-03-16","index":40}]}`))
	}))
	defer srv.Close()

	src := NewWeatherSource(srv.URL, "secret", 5*time.Second)
	signals, err := src.Fetch(context.Background(), "harborview",
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("signals = %d, want 2 (malformed date skipped)", len(signals))
	}
	if signals[0].Metric != "harborview/weather" {
		t.Errorf("metric = %q", signals[0].Metric)
	}
	if signals[0].Source != models.SourceWeather {
		t.Errorf("source = %q", signals[0].Source)
	}
	if signals[0].Value != 72.5 {
		t.Errorf("value = %v", signals[0].Value)
	}
}

func TestEventsSourceSumsSameDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events":[
			{"date":"2026-03-15","expected_attendance":1200},
			{"date":"2026-03-15","expected_attendance":300},
			{"date":"2026-03-16","expected_attendance":50}
		]}`))
	}))
	defer srv.Close()

	src := NewEventsSource(srv.URL, 5*time.Second)
	signals, err := src.Fetch(context.Background(), "harborview",
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("signals = %d, want 2", len(signals))
	}
	byDay := map[string]float64{}
	for _, s := range signals {
		byDay[s.Timestamp.Format("2006-01-02")] = s.Value
	}
	if byDay["2026-03-15"] != 1500 {
		t.Errorf("2026-03-15 total = %v, want 1500", byDay["2026-03-15"])
	}
}

func TestSlowProviderYieldsUpstreamTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	src := NewRentListingsSource(srv.URL, 50*time.Millisecond)
	_, err := src.Fetch(context.Background(), "harborview",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error from slow provider")
	}
	if kind := models.KindOf(err); kind != models.KindUpstreamTimeout {
		t.Errorf("kind = %q, want upstream_timeout", kind)
	}
}

func TestMissingBaseURLIsConfigurationError(t *testing.T) {
	src := NewWeatherSource("", "", time.Second)
	_, err := src.Fetch(context.Background(), "harborview", time.Now(), time.Now())
	if !models.IsKind(err, models.KindInvalidConfiguration) {
		t.Fatalf("kind = %q, want invalid_configuration", models.KindOf(err))
	}
}

type countingSource struct {
	calls int
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Fetch(ctx context.Context, location string, from, to time.Time) ([]*models.Signal, error) {
	c.calls++
	return []*models.Signal{{
		Source:    models.SourceEvents,
		Metric:    models.MetricKey(location, "events"),
		Timestamp: from,
		Value:     float64(c.calls),
	}}, nil
}

func TestCachedSourceMemoizes(t *testing.T) {
	inner := &countingSource{}
	src := NewCachedSource(inner, cache.NewTTLCache(), time.Minute)

	from := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	first, err := src.Fetch(context.Background(), "harborview", from, to)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := src.Fetch(context.Background(), "harborview", from, to)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", inner.calls)
	}
	if first[0].Value != second[0].Value {
		t.Errorf("cached value diverged: %v vs %v", first[0].Value, second[0].Value)
	}

	// Different window misses the cache.
	if _, err := src.Fetch(context.Background(), "harborview", from.Add(24*time.Hour), to.Add(24*time.Hour)); err != nil {
		t.Fatalf("third fetch: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", inner.calls)
	}
}
