package scoring

import (
	"context"
	"math"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domsvc "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/service"
)

// Risk thresholds for the cash flow model.
const (
	VolatilityCaution  = 0.3
	VolatilityCritical = 0.5
	BurdenCaution      = 0.7
	BurdenCritical     = 0.9

	// runwayCap stands in for "not burning cash": runway is unbounded when
	// net flow is non-negative, so the score is capped here.
	runwayCap = 3650
)

// CashFlowConfig tunes the deterministic cash flow model.
type CashFlowConfig struct {
	HalfLifeDays   float64 `yaml:"half_life_days"`
	MinHistoryDays int     `yaml:"min_history_days"`
	FloorConf      float64 `yaml:"floor_confidence"`
}

func (c CashFlowConfig) withDefaults() CashFlowConfig {
	if c.HalfLifeDays <= 0 {
		c.HalfLifeDays = 14
	}
	if c.MinHistoryDays <= 0 {
		c.MinHistoryDays = 7
	}
	if c.FloorConf <= 0 {
		c.FloorConf = 0.3
	}
	return c
}

// CashFlow scores runway in days from aggregated transaction features.
// It is fully deterministic: the same input always yields the same score.
type CashFlow struct {
	cfg CashFlowConfig
}

func NewCashFlow(cfg CashFlowConfig) *CashFlow {
	return &CashFlow{cfg: cfg.withDefaults()}
}

func (m *CashFlow) Module() models.Module { return models.ModuleCashflow }

// HalfLifeDays is the EWMA half-life the burn feature is computed with.
func (m *CashFlow) HalfLifeDays() float64 { return m.cfg.HalfLifeDays }

// Score expects burn_ewma (EWMA of daily outflow minus inflow), balance
// (cash on hand) and history_days; trend_30d, volatility and burden are
// optional and only shape confidence and drivers downstream. The score
// value is the projected runway in days.
func (m *CashFlow) Score(ctx context.Context, in domsvc.ScoreInput) (models.Score, error) {
	burn, err := required(in, "burn_ewma")
	if err != nil {
		return models.Score{}, err
	}
	balance, err := required(in, "balance")
	if err != nil {
		return models.Score{}, err
	}
	historyDays, err := required(in, "history_days")
	if err != nil {
		return models.Score{}, err
	}

	runway := float64(runwayCap)
	if burn > 0 && balance >= 0 {
		runway = balance / burn
		if runway > runwayCap {
			runway = runwayCap
		}
	}

	volatility := in.Features["volatility"]
	score := models.Score{
		Period:     in.Period,
		Module:     models.ModuleCashflow,
		Value:      runway,
		Confidence: dataConfidence(int(historyDays), volatility),
	}
	if int(historyDays) < m.cfg.MinHistoryDays {
		score.Markers = append(score.Markers, models.KindInsufficientHistory)
		if score.Confidence > m.cfg.FloorConf {
			score.Confidence = m.cfg.FloorConf
		}
	}
	return score, nil
}

// dataConfidence mirrors the quantity/quality split: up to 0.7 from days
// of history, up to 0.3 from revenue stability.
func dataConfidence(dataDays int, volatility float64) float64 {
	var dataConf float64
	switch {
	case dataDays >= 90:
		dataConf = 0.7
	case dataDays >= 30:
		dataConf = 0.5 + float64(dataDays-30)/60*0.2
	default:
		dataConf = 0.3 + float64(dataDays)/30*0.2
	}

	var volConf float64
	switch {
	case volatility < 0.2:
		volConf = 0.3
	case volatility < 0.4:
		volConf = 0.2
	default:
		volConf = 0.1
	}

	conf := dataConf + volConf
	if conf > 1 {
		conf = 1
	}
	return conf
}

func required(in domsvc.ScoreInput, name string) (float64, error) {
	v, ok := in.Features[name]
	if !ok {
		return 0, models.E(models.KindModelInputMismatch, "%s: missing feature %q for period %s", in.Module, name, in.Period.Format("2006-01-02"))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, models.E(models.KindModelInputMismatch, "%s: non-finite feature %q for period %s", in.Module, name, in.Period.Format("2006-01-02"))
	}
	return v, nil
}
