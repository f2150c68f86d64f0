package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/classify"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/features"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/scoring"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func testSpecs() map[string]features.Spec {
	return map[string]features.Spec{
		"cash_in":      {Source: models.SourceTransactions, Kind: features.AggSum, Decay: 0.9},
		"cash_out":     {Source: models.SourceTransactions, Kind: features.AggSum, Decay: 0.9},
		"weather":      {Source: models.SourceWeather, Kind: features.AggWeightedMean, Decay: 0.8, Min: 0, Max: 100},
		"events":       {Source: models.SourceEvents, Kind: features.AggWeightedMean, Decay: 0.8, Min: 0, Max: 10000},
		"foot_traffic": {Source: models.SourceTraffic, Kind: features.AggWeightedMean, Decay: 0.8, Min: 0, Max: 50000},
		"median_rent":  {Source: models.SourceRent, Kind: features.AggPctChange, Window: 365, Decay: 1},
	}
}

func testClassifiers(t *testing.T, state domrepo.TierStateStore) map[models.Module]*classify.Classifier {
	t.Helper()
	configs := []classify.Config{
		{
			Module:       models.ModuleCashflow,
			LowerIsWorse: true,
			Bands: []classify.Band{
				{Tier: models.TierStable},
				{Tier: models.TierWatch, Enter: 45, Exit: 50},
				{Tier: models.TierCritical, Enter: 15, Exit: 20},
			},
		},
		{
			Module: models.ModuleRent,
			Bands: []classify.Band{
				{Tier: models.TierSettled},
				{Tier: models.TierElevated, Enter: 0.5, Exit: 0.45},
				{Tier: models.TierHikeLikely, Enter: 0.7, Exit: 0.65},
			},
		},
	}
	for _, m := range []models.Module{models.ModuleTourism, models.ModuleDemand} {
		configs = append(configs, classify.Config{
			Module: m,
			Bands: []classify.Band{
				{Tier: models.TierLow},
				{Tier: models.TierModerate, Enter: 0.35, Exit: 0.30},
				{Tier: models.TierHigh, Enter: 0.60, Exit: 0.55},
				{Tier: models.TierVeryHigh, Enter: 0.85, Exit: 0.80},
			},
		})
	}
	out := make(map[models.Module]*classify.Classifier, len(configs))
	for _, cfg := range configs {
		c, err := classify.New(cfg, state)
		if err != nil {
			t.Fatalf("classifier %s: %v", cfg.Module, err)
		}
		out[cfg.Module] = c
	}
	return out
}

func newTestEngine(t *testing.T, store *repository.MemorySignalStore) *OutlookEngine {
	t.Helper()
	weights := map[string]float64{"weather": 0.5, "events": 0.3, "foot_traffic": 0.2}
	tourism, err := scoring.NewWeighted(models.ModuleTourism, weights)
	if err != nil {
		t.Fatalf("tourism model: %v", err)
	}
	demand, err := scoring.NewWeighted(models.ModuleDemand, weights)
	if err != nil {
		t.Fatalf("demand model: %v", err)
	}
	baseline, err := scoring.LoadBaseline("")
	if err != nil {
		t.Fatalf("rent baseline: %v", err)
	}
	return NewOutlookEngine(
		store,
		features.NewAggregator(store, testSpecs()),
		Models{
			CashFlow: scoring.NewCashFlow(scoring.CashFlowConfig{}),
			Tourism:  tourism,
			Demand:   demand,
			Rent:     scoring.NewRent(baseline),
		},
		testClassifiers(t, repository.NewMemoryTierStateStore()),
		nil,
		nil,
		Options{
			CashflowWindow: 90,
			HorizonDecay: map[models.Module]float64{
				models.ModuleCashflow: 0.97,
				models.ModuleTourism:  0.95,
				models.ModuleDemand:   0.95,
				models.ModuleRent:     0.98,
			},
			Now: func() time.Time { return testNow },
		},
	)
}

func put(t *testing.T, store *repository.MemorySignalStore, src models.Source, metric string, day time.Time, value float64) {
	t.Helper()
	err := store.Put(context.Background(), &models.Signal{
		Source: src, Metric: metric, Timestamp: day, Value: value,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
}

func TestOutlookCashflowEndToEnd(t *testing.T) {
	store := repository.NewMemorySignalStore()
	loc := "santa-cruz"
	// 90 days of 500 in / 650 out and 4000 on hand: burn 150/day,
	// runway 26.7 days.
	today := domrepo.DayOf(testNow)
	for i := 1; i <= 90; i++ {
		d := today.AddDate(0, 0, -i)
		put(t, store, models.SourceTransactions, models.MetricKey(loc, "cash_in"), d, 500)
		put(t, store, models.SourceTransactions, models.MetricKey(loc, "cash_out"), d, 650)
	}
	put(t, store, models.SourceTransactions, models.MetricKey(loc, "cash_balance"), today.AddDate(0, 0, -1), 4000)

	engine := newTestEngine(t, store)
	resp, err := engine.Outlook(context.Background(), models.OutlookRequest{Location: loc, Days: 7, Module: "cashflow"})
	if err != nil {
		t.Fatalf("outlook: %v", err)
	}
	if len(resp.Outlook) != 7 {
		t.Fatalf("expected 7 days, got %d", len(resp.Outlook))
	}
	for i, o := range resp.Outlook {
		if o.Tier != models.TierWatch {
			t.Fatalf("day %d: got tier %q want %q", i, o.Tier, models.TierWatch)
		}
		if len(o.Markers) != 0 {
			t.Fatalf("day %d: unexpected markers %v", i, o.Markers)
		}
	}
	// A burning business must surface net_burn among the drivers.
	foundBurn := false
	for _, d := range resp.Outlook[0].Drivers {
		if d.Factor == "net_burn" && d.Impact == models.ImpactNegative {
			foundBurn = true
		}
	}
	if !foundBurn {
		t.Fatalf("expected a negative net_burn driver, got %v", resp.Outlook[0].Drivers)
	}
}

func TestOutlookConfidenceMonotone(t *testing.T) {
	store := repository.NewMemorySignalStore()
	loc := "santa-cruz"
	today := domrepo.DayOf(testNow)
	for i := 0; i < 7; i++ {
		d := today.AddDate(0, 0, i)
		put(t, store, models.SourceWeather, models.MetricKey(loc, "weather"), d, 70)
		put(t, store, models.SourceEvents, models.MetricKey(loc, "events"), d, 3000)
		put(t, store, models.SourceTraffic, models.MetricKey(loc, "foot_traffic"), d, 20000)
	}

	engine := newTestEngine(t, store)
	resp, err := engine.Outlook(context.Background(), models.OutlookRequest{Location: loc, Days: 7, Module: "demand"})
	if err != nil {
		t.Fatalf("outlook: %v", err)
	}
	for i := 1; i < len(resp.Outlook); i++ {
		if resp.Outlook[i].Confidence > resp.Outlook[i-1].Confidence {
			t.Fatalf("confidence rose from day %d to %d: %v > %v",
				i-1, i, resp.Outlook[i].Confidence, resp.Outlook[i-1].Confidence)
		}
	}
	if resp.Outlook[0].DemandLevel != resp.Outlook[0].Tier {
		t.Fatalf("demand_level must mirror tier")
	}
}

func TestOutlookMissingWeatherDegrades(t *testing.T) {
	store := repository.NewMemorySignalStore()
	loc := "santa-cruz"
	today := domrepo.DayOf(testNow)
	for i := 0; i < 3; i++ {
		d := today.AddDate(0, 0, i)
		if i != 1 {
			put(t, store, models.SourceWeather, models.MetricKey(loc, "weather"), d, 70)
		}
		put(t, store, models.SourceEvents, models.MetricKey(loc, "events"), d, 3000)
		put(t, store, models.SourceTraffic, models.MetricKey(loc, "foot_traffic"), d, 20000)
	}

	engine := newTestEngine(t, store)
	resp, err := engine.Outlook(context.Background(), models.OutlookRequest{Location: loc, Days: 3, Module: "tourism"})
	if err != nil {
		t.Fatalf("a missing source day must not fail the request: %v", err)
	}
	if !resp.Outlook[1].Degraded {
		t.Fatalf("day with missing weather must be degraded")
	}
	if resp.Outlook[1].Confidence >= resp.Outlook[0].Confidence {
		t.Fatalf("degraded day must carry strictly lower confidence: %v >= %v",
			resp.Outlook[1].Confidence, resp.Outlook[0].Confidence)
	}
}

func TestOutlookRentMismatchIsolated(t *testing.T) {
	store := repository.NewMemorySignalStore()
	engine := newTestEngine(t, store)

	// No rent observations at all: every period degrades to a marker
	// outlook instead of failing the request.
	resp, err := engine.Outlook(context.Background(), models.OutlookRequest{Location: "santa-cruz", Days: 3, Module: "rent"})
	if err != nil {
		t.Fatalf("outlook: %v", err)
	}
	for i, o := range resp.Outlook {
		if !o.Degraded {
			t.Fatalf("day %d must be degraded", i)
		}
		if len(o.Markers) != 1 || o.Markers[0] != models.KindModelInputMismatch {
			t.Fatalf("day %d: expected model_input_mismatch marker, got %v", i, o.Markers)
		}
		if o.Confidence != 0 {
			t.Fatalf("day %d: marker outlook confidence must be 0", i)
		}
	}
}

func TestOutlookRentHike(t *testing.T) {
	store := repository.NewMemorySignalStore()
	loc := "santa-cruz"
	today := domrepo.DayOf(testNow)
	for i := 0; i < 3; i++ {
		d := today.AddDate(0, 0, i)
		put(t, store, models.SourceRent, models.MetricKey(loc, "median_rent"), d.AddDate(0, 0, -365), 2000)
		put(t, store, models.SourceRent, models.MetricKey(loc, "median_rent"), d, 2180)
	}

	engine := newTestEngine(t, store)
	resp, err := engine.Outlook(context.Background(), models.OutlookRequest{Location: loc, Days: 3, Module: "rent"})
	if err != nil {
		t.Fatalf("outlook: %v", err)
	}
	// 9% observed YoY against a ~5.2% baseline is far above the assumed
	// 0.3 point std, so hike likelihood saturates.
	if resp.Outlook[0].Tier != models.TierHikeLikely {
		t.Fatalf("got tier %q want %q", resp.Outlook[0].Tier, models.TierHikeLikely)
	}
}

func TestOutlookAllFanOut(t *testing.T) {
	store := repository.NewMemorySignalStore()
	loc := "santa-cruz"
	today := domrepo.DayOf(testNow)
	for i := 0; i < 3; i++ {
		d := today.AddDate(0, 0, i)
		put(t, store, models.SourceWeather, models.MetricKey(loc, "weather"), d, 70)
		put(t, store, models.SourceEvents, models.MetricKey(loc, "events"), d, 3000)
		put(t, store, models.SourceTraffic, models.MetricKey(loc, "foot_traffic"), d, 20000)
	}

	uc := NewOutlookAggregateUseCase(newTestEngine(t, store))
	res, err := uc.All(context.Background(), loc, 3)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	for _, m := range []models.Module{models.ModuleCashflow, models.ModuleTourism, models.ModuleRent, models.ModuleDemand} {
		if res.Modules[m] == nil {
			t.Fatalf("module %s missing from aggregate (errors: %v)", m, res.Errors)
		}
	}
	if math.IsNaN(res.Modules[models.ModuleDemand].Outlook[0].Confidence) {
		t.Fatalf("confidence must be finite")
	}
}
