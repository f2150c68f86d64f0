package service

import (
	"context"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
)

// ScoreInput is the feature snapshot a model scores one period from.
type ScoreInput struct {
	Module       models.Module
	Location     string
	Period       time.Time
	DaysAhead    int
	Features     map[string]float64
	Completeness float64 // share of expected inputs present, in [0,1]
}

// ScoringModel turns aggregated features into a bounded score for one
// period. Missing required features yield a model_input_mismatch error;
// thin history is reported through Score.Markers, not an error.
type ScoringModel interface {
	Module() models.Module
	Score(ctx context.Context, in ScoreInput) (models.Score, error)
}
