package scoring

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domsvc "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/service"
)

func TestWeightedRejectsBadWeights(t *testing.T) {
	cases := []struct {
		name    string
		weights map[string]float64
	}{
		{"empty", nil},
		{"sum below one", map[string]float64{"weather": 0.5, "events": 0.3}},
		{"sum above one", map[string]float64{"weather": 0.7, "events": 0.7}},
		{"negative", map[string]float64{"weather": 1.5, "events": -0.5}},
	}
	for _, tc := range cases {
		if _, err := NewWeighted(models.ModuleDemand, tc.weights); !models.IsKind(err, models.KindInvalidConfiguration) {
			t.Fatalf("%s: expected invalid_configuration, got %v", tc.name, err)
		}
	}
}

func TestWeightedScore(t *testing.T) {
	m, err := NewWeighted(models.ModuleTourism, map[string]float64{
		"weather":      0.5,
		"events":       0.3,
		"foot_traffic": 0.2,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	score, err := m.Score(context.Background(), domsvc.ScoreInput{
		Module:       models.ModuleTourism,
		Period:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Completeness: 1,
		Features: map[string]float64{
			"weather":      0.8,
			"events":       0.5,
			"foot_traffic": 0.2,
		},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	want := 0.8*0.5 + 0.5*0.3 + 0.2*0.2
	if math.Abs(score.Value-want) > 1e-9 {
		t.Fatalf("score: got %v want %v", score.Value, want)
	}
	if score.Value < 0 || score.Value > 1 {
		t.Fatalf("score out of [0,1]: %v", score.Value)
	}
}

func TestWeightedMissingFactor(t *testing.T) {
	m, err := NewWeighted(models.ModuleDemand, map[string]float64{"weather": 0.6, "events": 0.4})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = m.Score(context.Background(), domsvc.ScoreInput{
		Module:   models.ModuleDemand,
		Features: map[string]float64{"weather": 0.5},
	})
	if !models.IsKind(err, models.KindModelInputMismatch) {
		t.Fatalf("expected model_input_mismatch, got %v", err)
	}
}

func TestWeightedConfidenceTracksCompleteness(t *testing.T) {
	m, err := NewWeighted(models.ModuleDemand, map[string]float64{"weather": 1.0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	full, _ := m.Score(context.Background(), domsvc.ScoreInput{
		Completeness: 1,
		Features:     map[string]float64{"weather": 0.5},
	})
	thin, _ := m.Score(context.Background(), domsvc.ScoreInput{
		Completeness: 0.5,
		Features:     map[string]float64{"weather": 0.5},
	})
	if thin.Confidence >= full.Confidence {
		t.Fatalf("degraded input must lower confidence: %v >= %v", thin.Confidence, full.Confidence)
	}
}
