package scoring

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domsvc "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/service"
)

func cashInput(feats map[string]float64) domsvc.ScoreInput {
	return domsvc.ScoreInput{
		Module:       models.ModuleCashflow,
		Location:     "santa-cruz",
		Period:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Features:     feats,
		Completeness: 1,
	}
}

func TestCashFlowRunway(t *testing.T) {
	m := NewCashFlow(CashFlowConfig{})
	// 500 in, 650 out per day, 4000 on hand: burn 150/day, runway 26.7 days.
	score, err := m.Score(context.Background(), cashInput(map[string]float64{
		"burn_ewma":    150,
		"balance":      4000,
		"history_days": 45,
		"volatility":   0.1,
	}))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(score.Value-26.666666) > 1e-3 {
		t.Fatalf("runway: got %v want ~26.67", score.Value)
	}
	if len(score.Markers) != 0 {
		t.Fatalf("unexpected markers %v", score.Markers)
	}
}

func TestCashFlowNonPositiveBurn(t *testing.T) {
	m := NewCashFlow(CashFlowConfig{})
	score, err := m.Score(context.Background(), cashInput(map[string]float64{
		"burn_ewma":    -50,
		"balance":      4000,
		"history_days": 90,
	}))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Value != runwayCap {
		t.Fatalf("non-burning business must hit the runway cap, got %v", score.Value)
	}
}

func TestCashFlowInsufficientHistory(t *testing.T) {
	m := NewCashFlow(CashFlowConfig{MinHistoryDays: 14, FloorConf: 0.3})
	score, err := m.Score(context.Background(), cashInput(map[string]float64{
		"burn_ewma":    100,
		"balance":      1000,
		"history_days": 3,
	}))
	if err != nil {
		t.Fatalf("thin history must not fail the score: %v", err)
	}
	found := false
	for _, k := range score.Markers {
		if k == models.KindInsufficientHistory {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected insufficient_history marker, got %v", score.Markers)
	}
	if score.Confidence > 0.3 {
		t.Fatalf("confidence must be floored, got %v", score.Confidence)
	}
}

func TestCashFlowMissingFeature(t *testing.T) {
	m := NewCashFlow(CashFlowConfig{})
	_, err := m.Score(context.Background(), cashInput(map[string]float64{"balance": 1000}))
	if !models.IsKind(err, models.KindModelInputMismatch) {
		t.Fatalf("expected model_input_mismatch, got %v", err)
	}
}

func TestCashFlowNonFiniteFeature(t *testing.T) {
	m := NewCashFlow(CashFlowConfig{})
	_, err := m.Score(context.Background(), cashInput(map[string]float64{
		"burn_ewma":    math.NaN(),
		"balance":      1000,
		"history_days": 30,
	}))
	if !models.IsKind(err, models.KindModelInputMismatch) {
		t.Fatalf("expected model_input_mismatch, got %v", err)
	}
}

func TestDataConfidenceBands(t *testing.T) {
	if got := dataConfidence(90, 0.1); got != 1.0 {
		t.Fatalf("long calm history: got %v want 1.0", got)
	}
	if got := dataConfidence(0, 0.6); math.Abs(got-0.4) > 1e-9 {
		t.Fatalf("no history, high volatility: got %v want 0.4", got)
	}
	low := dataConfidence(10, 0.3)
	high := dataConfidence(60, 0.3)
	if low >= high {
		t.Fatalf("confidence must grow with history: %v >= %v", low, high)
	}
}
