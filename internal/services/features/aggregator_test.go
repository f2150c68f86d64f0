package features

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedStore(t *testing.T, location, base string, src models.Source, values map[int]float64) *repository.MemorySignalStore {
	t.Helper()
	store := repository.NewMemorySignalStore()
	for d, v := range values {
		s := &models.Signal{
			Source:    src,
			Metric:    models.MetricKey(location, base),
			Timestamp: day(2026, time.March, d),
			Value:     v,
		}
		if err := store.Put(context.Background(), s); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	return store
}

func TestAggregateSum(t *testing.T) {
	store := seedStore(t, "santa-cruz", "cash_in", models.SourceTransactions, map[int]float64{1: 100, 2: 250, 3: 80})
	agg := NewAggregator(store, map[string]Spec{
		"cash_in": {Source: models.SourceTransactions, Kind: AggSum, Decay: 0.8},
	})

	feats, err := agg.Aggregate(context.Background(), "santa-cruz", "cash_in", domrepo.Horizon(day(2026, time.March, 1), 3))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(feats) != 3 {
		t.Fatalf("expected 3 features, got %d", len(feats))
	}
	want := []float64{100, 250, 80}
	for i, f := range feats {
		if f.Degraded {
			t.Fatalf("feature %d unexpectedly degraded", i)
		}
		if f.Value != want[i] {
			t.Fatalf("feature %d: got %v want %v", i, f.Value, want[i])
		}
		if len(f.Signals) != 1 {
			t.Fatalf("feature %d: expected 1 signal ref, got %d", i, len(f.Signals))
		}
	}
}

func TestAggregateFallbackDecay(t *testing.T) {
	store := seedStore(t, "santa-cruz", "foot_traffic", models.SourceTraffic, map[int]float64{1: 1000})
	agg := NewAggregator(store, map[string]Spec{
		"foot_traffic": {Source: models.SourceTraffic, Kind: AggWeightedMean, Decay: 0.5},
	})

	feats, err := agg.Aggregate(context.Background(), "santa-cruz", "foot_traffic", domrepo.Horizon(day(2026, time.March, 1), 3))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if feats[0].Degraded {
		t.Fatalf("day 1 should not be degraded")
	}
	if !feats[1].Degraded || !feats[2].Degraded {
		t.Fatalf("missing days must be degraded")
	}
	if got := feats[1].Value; math.Abs(got-500) > 1e-9 {
		t.Fatalf("one-day gap: got %v want 500", got)
	}
	if got := feats[2].Value; math.Abs(got-250) > 1e-9 {
		t.Fatalf("two-day gap: got %v want 250", got)
	}
	if len(feats[1].Signals) != 0 {
		t.Fatalf("degraded features carry no signal refs")
	}
}

func TestAggregatePctChange(t *testing.T) {
	store := seedStore(t, "santa-cruz", "median_rent", models.SourceRent, map[int]float64{1: 2000, 2: 2100})
	agg := NewAggregator(store, map[string]Spec{
		"median_rent": {Source: models.SourceRent, Kind: AggPctChange, Decay: 1},
	})

	feats, err := agg.Aggregate(context.Background(), "santa-cruz", "median_rent", []time.Time{day(2026, time.March, 2)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := feats[0].Value; math.Abs(got-0.05) > 1e-9 {
		t.Fatalf("pct change: got %v want 0.05", got)
	}
	if len(feats[0].Signals) != 2 {
		t.Fatalf("pct change references both periods")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	store := seedStore(t, "santa-cruz", "cash_out", models.SourceTransactions, map[int]float64{1: 50, 3: 70, 5: 20})
	agg := NewAggregator(store, map[string]Spec{
		"cash_out": {Source: models.SourceTransactions, Kind: AggSum, Decay: 0.9},
	})

	periods := domrepo.Horizon(day(2026, time.March, 1), 6)
	first, err := agg.Aggregate(context.Background(), "santa-cruz", "cash_out", periods)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	second, err := agg.Aggregate(context.Background(), "santa-cruz", "cash_out", periods)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch")
	}
	for i := range first {
		if first[i].Value != second[i].Value || first[i].Degraded != second[i].Degraded {
			t.Fatalf("feature %d differs between runs", i)
		}
	}
}

func TestAggregateUnknownMetric(t *testing.T) {
	agg := NewAggregator(repository.NewMemorySignalStore(), map[string]Spec{})
	_, err := agg.Aggregate(context.Background(), "santa-cruz", "nope", domrepo.Horizon(day(2026, time.March, 1), 1))
	if !models.IsKind(err, models.KindInvalidConfiguration) {
		t.Fatalf("expected invalid_configuration, got %v", err)
	}
}

func TestCompleteness(t *testing.T) {
	feats := []models.Feature{{Degraded: false}, {Degraded: true}, {Degraded: false}, {Degraded: false}}
	if got := Completeness(feats); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("completeness: got %v want 0.75", got)
	}
	if got := Completeness(nil); got != 0 {
		t.Fatalf("empty completeness: got %v want 0", got)
	}
}
