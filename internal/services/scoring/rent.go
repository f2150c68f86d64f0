package scoring

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domsvc "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/service"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/features"
)

// defaultYoYStdPct is the assumed standard deviation of year-over-year
// rent inflation, in percent points.
const defaultYoYStdPct = 0.3

// Baseline holds the trained rent market baseline: a least-squares line
// over yearly area prices plus the YoY inflation distribution.
type Baseline struct {
	SlopePerYear float64 `yaml:"slope_per_year" json:"slope_per_year"`
	Intercept    float64 `yaml:"intercept" json:"intercept"`
	YearMin      int     `yaml:"year_min" json:"year_min"`
	YearMax      int     `yaml:"year_max" json:"year_max"`
	MeanYoYPct   float64 `yaml:"mean_yoy_pct" json:"mean_yoy_pct"`
	StdYoYPct    float64 `yaml:"std_yoy_pct" json:"std_yoy_pct"`
}

// ExpectedPrice predicts the baseline monthly price for a year.
func (b Baseline) ExpectedPrice(year int) float64 {
	return b.SlopePerYear*float64(year) + b.Intercept
}

// ZScore positions an observed YoY percent against the baseline
// distribution.
func (b Baseline) ZScore(observedYoYPct float64) float64 {
	if b.StdYoYPct <= 0 {
		return 0
	}
	return (observedYoYPct - b.MeanYoYPct) / b.StdYoYPct
}

// artifact is the on-disk training artifact: a yearly price series the
// baseline is fit from at load time.
type artifact struct {
	Series []seriesPoint `yaml:"series"`
}

type seriesPoint struct {
	Year   int     `yaml:"year"`
	Price  float64 `yaml:"price"`
	YoYPct float64 `yaml:"yoy_pct"`
}

// fallbackSeries is the embedded 2015-2024 area price series used when no
// artifact file is configured or readable.
var fallbackSeries = []seriesPoint{
	{2015, 2100.0, 4.8},
	{2016, 2200.0, 4.9},
	{2017, 2305.0, 4.8},
	{2018, 2415.0, 4.9},
	{2019, 2530.0, 4.8},
	{2020, 2480.0, -2.0},
	{2021, 2620.0, 5.6},
	{2022, 2850.0, 8.8},
	{2023, 3100.0, 8.7},
	{2024, 3350.0, 7.0},
}

// LoadBaseline fits the baseline from a YAML series artifact, falling
// back to the embedded series when path is empty. A configured but
// unreadable or malformed artifact is a deployment error.
func LoadBaseline(path string) (Baseline, error) {
	series := fallbackSeries
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Baseline{}, models.Wrap(models.KindInvalidConfiguration, err, "rent baseline artifact %s", path)
		}
		var a artifact
		if err := yaml.Unmarshal(raw, &a); err != nil {
			return Baseline{}, models.Wrap(models.KindInvalidConfiguration, err, "rent baseline artifact %s", path)
		}
		if len(a.Series) < 2 {
			return Baseline{}, models.E(models.KindInvalidConfiguration, "rent baseline artifact %s: need at least 2 series points", path)
		}
		series = a.Series
	}
	return fitBaseline(series)
}

func fitBaseline(series []seriesPoint) (Baseline, error) {
	if len(series) < 2 {
		return Baseline{}, fmt.Errorf("need at least 2 points to fit a line")
	}
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	yoy := make([]float64, 0, len(series))
	yearMin, yearMax := series[0].Year, series[0].Year
	for i, p := range series {
		xs[i] = float64(p.Year)
		ys[i] = p.Price
		yoy = append(yoy, p.YoYPct)
		if p.Year < yearMin {
			yearMin = p.Year
		}
		if p.Year > yearMax {
			yearMax = p.Year
		}
	}
	slope, intercept := leastSquares(xs, ys)
	return Baseline{
		SlopePerYear: slope,
		Intercept:    intercept,
		YearMin:      yearMin,
		YearMax:      yearMax,
		MeanYoYPct:   features.Mean(yoy),
		StdYoYPct:    defaultYoYStdPct,
	}, nil
}

// leastSquares fits y = a*x + b. Degenerate x collapses to a flat line
// through the mean.
func leastSquares(xs, ys []float64) (a, b float64) {
	xMean := features.Mean(xs)
	yMean := features.Mean(ys)
	num, den := 0.0, 0.0
	for i := range xs {
		num += (xs[i] - xMean) * (ys[i] - yMean)
		den += (xs[i] - xMean) * (xs[i] - xMean)
	}
	if den == 0 {
		return 0, yMean
	}
	a = num / den
	return a, yMean - a*xMean
}

// Rent scores hike likelihood: the logistic of the z-score of the
// observed year-over-year rent change against the trained baseline.
type Rent struct {
	baseline Baseline
}

func NewRent(baseline Baseline) *Rent { return &Rent{baseline: baseline} }

func (m *Rent) Module() models.Module { return models.ModuleRent }

func (m *Rent) Baseline() Baseline { return m.baseline }

func (m *Rent) Score(ctx context.Context, in domsvc.ScoreInput) (models.Score, error) {
	yoy, err := required(in, "rent_yoy_pct")
	if err != nil {
		return models.Score{}, err
	}
	z := m.baseline.ZScore(yoy)
	return models.Score{
		Period:     in.Period,
		Module:     models.ModuleRent,
		Value:      features.Logistic(z),
		Confidence: 0.5 + 0.4*clamp01(in.Completeness),
	}, nil
}
