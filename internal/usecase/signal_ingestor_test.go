package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/repository"
)

func newTestIngestor(store domrepo.SignalStore) *SignalIngestor {
	return NewSignalIngestor(store, nil, nil, nil, IngestorConfig{
		MaxFutureLag:  48 * time.Hour,
		RetentionDays: 365,
		Now:           func() time.Time { return testNow },
	})
}

func TestIngestBatchPartialRejection(t *testing.T) {
	store := repository.NewMemorySignalStore()
	si := newTestIngestor(store)

	res, err := si.IngestBatch(context.Background(), "santa-cruz", []models.IngestRecord{
		{Source: "transactions", Metric: "cash_in", Date: "2026-03-14", Value: 500},
		{Source: "fitbit", Metric: "steps", Date: "2026-03-14", Value: 9000},           // unknown source
		{Source: "transactions", Metric: "", Date: "2026-03-14", Value: 10},           // empty metric
		{Source: "traffic", Metric: "foot_traffic", Date: "2026-03-14", Value: -5},    // below physical range
		{Source: "transactions", Metric: "cash_in", Date: "2026-06-01", Value: 100},   // beyond future lag
		{Source: "transactions", Metric: "cash_in", Date: "2020-01-01", Value: 100},   // before retention
		{Source: "transactions", Metric: "cash_out", Date: "not-a-date", Value: 100},  // bad date
	})
	if err != nil {
		t.Fatalf("rejections must not abort the batch: %v", err)
	}
	if res.Accepted != 1 {
		t.Fatalf("accepted: got %d want 1", res.Accepted)
	}
	if len(res.Rejected) != 6 {
		t.Fatalf("rejected: got %d want 6", len(res.Rejected))
	}
	for _, r := range res.Rejected {
		if r.Kind != models.KindInvalidSignal {
			t.Fatalf("index %d: got kind %q want invalid_signal", r.Index, r.Kind)
		}
	}

	got, err := store.Latest(context.Background(), models.MetricKey("santa-cruz", "cash_in"))
	if err != nil || got == nil {
		t.Fatalf("accepted signal must be stored: %v %v", got, err)
	}
	if got.Value != 500 {
		t.Fatalf("stored value: got %v want 500", got.Value)
	}
}

func TestIngestLastWriteWins(t *testing.T) {
	store := repository.NewMemorySignalStore()
	si := newTestIngestor(store)
	ctx := context.Background()

	for _, v := range []float64{100, 250} {
		res, err := si.IngestBatch(ctx, "santa-cruz", []models.IngestRecord{
			{Source: "transactions", Metric: "cash_in", Date: "2026-03-14", Value: v},
		})
		if err != nil || res.Accepted != 1 {
			t.Fatalf("ingest: %v %+v", err, res)
		}
	}

	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	sigs, err := store.Range(ctx, models.MetricKey("santa-cruz", "cash_in"), day, day)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("duplicate identity must overwrite, got %d rows", len(sigs))
	}
	if sigs[0].Value != 250 {
		t.Fatalf("last write must win: got %v", sigs[0].Value)
	}
}

func TestIngestFutureWithinLagAccepted(t *testing.T) {
	si := newTestIngestor(repository.NewMemorySignalStore())
	res, err := si.IngestBatch(context.Background(), "santa-cruz", []models.IngestRecord{
		{Source: "weather", Metric: "weather", Date: "2026-03-16", Value: 65},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Accepted != 1 {
		t.Fatalf("a forecast inside the lag window must be accepted: %+v", res)
	}
}

func TestIngestRequiresLocation(t *testing.T) {
	si := newTestIngestor(repository.NewMemorySignalStore())
	_, err := si.IngestBatch(context.Background(), "", []models.IngestRecord{
		{Source: "transactions", Metric: "cash_in", Date: "2026-03-14", Value: 1},
	})
	if !models.IsKind(err, models.KindInvalidSignal) {
		t.Fatalf("expected invalid_signal, got %v", err)
	}
}

func TestIngestSingleNonFinite(t *testing.T) {
	si := newTestIngestor(repository.NewMemorySignalStore())
	res, err := si.IngestBatch(context.Background(), "santa-cruz", []models.IngestRecord{
		{Source: "events", Metric: "events", Date: "2026-03-14", Value: math.Inf(1)},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Accepted != 0 || len(res.Rejected) != 1 {
		t.Fatalf("non-finite value must be rejected: %+v", res)
	}
}
