package scoring

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domsvc "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/service"
)

func TestLoadBaselineFallback(t *testing.T) {
	b, err := LoadBaseline("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.YearMin != 2015 || b.YearMax != 2024 {
		t.Fatalf("fallback year span: got %d-%d", b.YearMin, b.YearMax)
	}
	if b.SlopePerYear <= 0 {
		t.Fatalf("fallback series rises, slope must be positive: %v", b.SlopePerYear)
	}
	// mean of the embedded yoy column
	if math.Abs(b.MeanYoYPct-5.23) > 0.01 {
		t.Fatalf("mean yoy: got %v want ~5.23", b.MeanYoYPct)
	}
	if b.StdYoYPct != defaultYoYStdPct {
		t.Fatalf("std yoy: got %v want %v", b.StdYoYPct, defaultYoYStdPct)
	}
}

func TestLoadBaselineArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.yaml")
	data := "series:\n" +
		"  - {year: 2020, price: 1000, yoy_pct: 2.0}\n" +
		"  - {year: 2021, price: 1100, yoy_pct: 10.0}\n" +
		"  - {year: 2022, price: 1200, yoy_pct: 9.1}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	b, err := LoadBaseline(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if math.Abs(b.SlopePerYear-100) > 1e-9 {
		t.Fatalf("slope: got %v want 100", b.SlopePerYear)
	}
	if b.YearMin != 2020 || b.YearMax != 2022 {
		t.Fatalf("year span: got %d-%d", b.YearMin, b.YearMax)
	}
}

func TestLoadBaselineBadArtifact(t *testing.T) {
	if _, err := LoadBaseline(filepath.Join(t.TempDir(), "missing.yaml")); !models.IsKind(err, models.KindInvalidConfiguration) {
		t.Fatalf("missing artifact: expected invalid_configuration, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "short.yaml")
	if err := os.WriteFile(path, []byte("series:\n  - {year: 2020, price: 1000}\n"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if _, err := LoadBaseline(path); !models.IsKind(err, models.KindInvalidConfiguration) {
		t.Fatalf("short series: expected invalid_configuration, got %v", err)
	}
}

func TestRentScore(t *testing.T) {
	b, err := LoadBaseline("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m := NewRent(b)
	at := func(yoy float64) models.Score {
		s, err := m.Score(context.Background(), domsvc.ScoreInput{
			Module:       models.ModuleRent,
			Period:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			Completeness: 1,
			Features:     map[string]float64{"rent_yoy_pct": yoy},
		})
		if err != nil {
			t.Fatalf("score at yoy %v: %v", yoy, err)
		}
		return s
	}

	baselineScore := at(b.MeanYoYPct)
	if math.Abs(baselineScore.Value-0.5) > 1e-9 {
		t.Fatalf("yoy at baseline mean must score 0.5, got %v", baselineScore.Value)
	}
	hot := at(b.MeanYoYPct + 2)
	cool := at(b.MeanYoYPct - 2)
	if hot.Value <= baselineScore.Value || cool.Value >= baselineScore.Value {
		t.Fatalf("hike likelihood must be monotone in observed yoy: %v / %v / %v", cool.Value, baselineScore.Value, hot.Value)
	}
	if hot.Value < 0 || hot.Value > 1 {
		t.Fatalf("likelihood out of [0,1]: %v", hot.Value)
	}
}

func TestRentMissingFeature(t *testing.T) {
	b, _ := LoadBaseline("")
	m := NewRent(b)
	_, err := m.Score(context.Background(), domsvc.ScoreInput{Module: models.ModuleRent, Features: map[string]float64{}})
	if !models.IsKind(err, models.KindModelInputMismatch) {
		t.Fatalf("expected model_input_mismatch, got %v", err)
	}
}

func TestExpectedPrice(t *testing.T) {
	b := Baseline{SlopePerYear: 100, Intercept: -199000}
	if got := b.ExpectedPrice(2020); math.Abs(got-3000) > 1e-9 {
		t.Fatalf("expected price: got %v want 3000", got)
	}
}
