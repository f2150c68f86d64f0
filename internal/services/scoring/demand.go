package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domsvc "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/service"
)

const weightSumTolerance = 1e-9

// Weighted is the multi-factor model behind the tourism and demand
// modules: a convex combination of normalized feature indices. Each
// weighted feature must be present in the input; features are expected
// in [0,1] so the score lands in [0,1].
type Weighted struct {
	module  models.Module
	weights map[string]float64
	names   []string
}

// NewWeighted validates that the weights sum to 1. A bad weight table is
// a deployment error and should stop startup.
func NewWeighted(module models.Module, weights map[string]float64) (*Weighted, error) {
	if len(weights) == 0 {
		return nil, models.E(models.KindInvalidConfiguration, "%s: empty weight table", module)
	}
	sum := 0.0
	names := make([]string, 0, len(weights))
	for name, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, models.E(models.KindInvalidConfiguration, "%s: weight %q = %v out of range", module, name, w)
		}
		sum += w
		names = append(names, name)
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return nil, models.E(models.KindInvalidConfiguration, "%s: weights sum to %v, want 1.0", module, sum)
	}
	sort.Strings(names)
	return &Weighted{module: module, weights: weights, names: names}, nil
}

func (m *Weighted) Module() models.Module { return m.module }

// Weights returns the factor names in deterministic order with their weights.
func (m *Weighted) Weights() ([]string, map[string]float64) { return m.names, m.weights }

func (m *Weighted) Score(ctx context.Context, in domsvc.ScoreInput) (models.Score, error) {
	total := 0.0
	for _, name := range m.names {
		v, err := required(in, name)
		if err != nil {
			return models.Score{}, err
		}
		total += v * m.weights[name]
	}
	return models.Score{
		Period:     in.Period,
		Module:     m.module,
		Value:      clamp01(total),
		Confidence: 0.4 + 0.6*clamp01(in.Completeness),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Contribution reports one factor's weighted share of the score; used by
// the explanation assembler.
func (m *Weighted) Contribution(name string, in domsvc.ScoreInput) (float64, error) {
	w, ok := m.weights[name]
	if !ok {
		return 0, fmt.Errorf("unknown factor %q", name)
	}
	return in.Features[name] * w, nil
}
