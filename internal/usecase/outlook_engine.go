package usecase

import (
	"context"
	"math"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	domsvc "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/service"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/classify"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/explain"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/features"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/scoring"
	applogger "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
)

// Models bundles the four scoring models behind the engine.
type Models struct {
	CashFlow *scoring.CashFlow
	Tourism  *scoring.Weighted
	Demand   *scoring.Weighted
	Rent     *scoring.Rent
}

// Options tunes the engine independent of the models.
type Options struct {
	TopDrivers     int
	HorizonDecay   map[models.Module]float64 // per-day confidence decay, in (0,1]
	CashflowWindow int                       // trailing days of transaction history
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TopDrivers <= 0 {
		o.TopDrivers = 5
	}
	if o.CashflowWindow <= 0 {
		o.CashflowWindow = 90
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) decayFor(m models.Module) float64 {
	if d, ok := o.HorizonDecay[m]; ok && d > 0 && d <= 1 {
		return d
	}
	return 0.95
}

// OutlookEngine runs the pipeline for one request: aggregate features,
// score each day of the horizon, classify with hysteresis and attach
// explanations. Periods are scored in date order because the tier state
// threads through the sequence; distinct (module, location) pairs are
// independent.
type OutlookEngine struct {
	store       domrepo.SignalStore
	agg         *features.Aggregator
	models      Models
	classifiers map[models.Module]*classify.Classifier
	assemble    *explain.Assembler
	metrics     domrepo.Metrics
	log         *applogger.Logger
	opts        Options
}

func NewOutlookEngine(
	store domrepo.SignalStore,
	agg *features.Aggregator,
	mdl Models,
	classifiers map[models.Module]*classify.Classifier,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	opts Options,
) *OutlookEngine {
	opts = opts.withDefaults()
	return &OutlookEngine{
		store:       store,
		agg:         agg,
		models:      mdl,
		classifiers: classifiers,
		assemble:    explain.New(opts.TopDrivers),
		metrics:     metrics,
		log:         log,
		opts:        opts,
	}
}

// periodInput is one period's prepared model input plus the driver
// contributions derived from the same features.
type periodInput struct {
	in       domsvc.ScoreInput
	contribs []explain.Contribution
}

// Outlook computes the horizon for one module and location.
func (e *OutlookEngine) Outlook(ctx context.Context, req models.OutlookRequest) (*models.OutlookResponse, error) {
	started := time.Now()
	module := models.NormalizeModule(req.Module)
	periods := domrepo.Horizon(e.opts.Now(), req.Days)

	model, err := e.modelFor(module)
	if err != nil {
		return nil, err
	}
	classifier, ok := e.classifiers[module]
	if !ok {
		return nil, models.E(models.KindInvalidConfiguration, "no tier ladder configured for module %s", module)
	}

	inputs, err := e.prepare(ctx, module, req.Location, periods)
	if err != nil {
		return nil, err
	}

	resp := &models.OutlookResponse{
		Location:    req.Location,
		Module:      module,
		GeneratedAt: e.opts.Now().UTC(),
		Outlook:     make([]models.Outlook, 0, len(periods)),
	}

	decay := e.opts.decayFor(module)
	prevConf := math.MaxFloat64
	for i, pi := range inputs {
		score, err := model.Score(ctx, pi.in)
		if err != nil {
			if !models.IsKind(err, models.KindModelInputMismatch) {
				return nil, err
			}
			// A bad feature vector fails only this period.
			e.recordError(models.KindModelInputMismatch)
			resp.Outlook = append(resp.Outlook, e.markerOutlook(ctx, module, req.Location, periods[i]))
			continue
		}

		conf := score.Confidence * math.Pow(decay, float64(i))
		if conf > prevConf {
			conf = prevConf
		}
		prevConf = conf

		tier, err := classifier.Classify(ctx, req.Location, score.Value)
		if err != nil {
			return nil, err
		}
		e.recordTier(module, req.Location, tier)

		drivers, truncated, summary := e.assemble.Assemble(tier, req.Location, pi.contribs)

		out := models.Outlook{
			Date:             models.Day{Time: periods[i]},
			Tier:             tier,
			Confidence:       conf,
			Drivers:          drivers,
			Summary:          summary,
			DriversTruncated: truncated,
			Degraded:         pi.in.Completeness < 1 || len(score.Markers) > 0,
			Markers:          score.Markers,
		}
		if module == models.ModuleTourism || module == models.ModuleDemand {
			out.DemandLevel = tier
		}
		resp.Outlook = append(resp.Outlook, out)
	}

	if e.metrics != nil {
		e.metrics.RecordLatency("outlook", time.Since(started).Seconds())
	}
	if e.log != nil {
		e.log.Debug("outlook computed",
			applogger.String("module", string(module)),
			applogger.String("location", req.Location),
			applogger.Int("days", len(resp.Outlook)),
			applogger.Duration("took", time.Since(started)))
	}
	return resp, nil
}

// markerOutlook is emitted for a period whose model input was unusable.
// The tier holds at the stored state so a single bad period does not
// visually flap the horizon.
func (e *OutlookEngine) markerOutlook(ctx context.Context, module models.Module, location string, period time.Time) models.Outlook {
	tier := models.TiersFor(module)[0]
	if c, ok := e.classifiers[module]; ok {
		if prev, found, err := c.State(ctx, location); err == nil && found {
			tier = prev
		}
	}
	return models.Outlook{
		Date:       models.Day{Time: period},
		Tier:       tier,
		Confidence: 0,
		Drivers:    []models.Driver{},
		Summary:    "Model input unavailable for this period in " + location + ".",
		Degraded:   true,
		Markers:    []models.ErrorKind{models.KindModelInputMismatch},
	}
}

func (e *OutlookEngine) modelFor(m models.Module) (domsvc.ScoringModel, error) {
	switch m {
	case models.ModuleCashflow:
		if e.models.CashFlow != nil {
			return e.models.CashFlow, nil
		}
	case models.ModuleTourism:
		if e.models.Tourism != nil {
			return e.models.Tourism, nil
		}
	case models.ModuleDemand:
		if e.models.Demand != nil {
			return e.models.Demand, nil
		}
	case models.ModuleRent:
		if e.models.Rent != nil {
			return e.models.Rent, nil
		}
	}
	return nil, models.E(models.KindInvalidConfiguration, "no model configured for module %s", m)
}

func (e *OutlookEngine) prepare(ctx context.Context, module models.Module, location string, periods []time.Time) ([]periodInput, error) {
	switch module {
	case models.ModuleCashflow:
		return e.cashflowInputs(ctx, location, periods)
	case models.ModuleRent:
		return e.rentInputs(ctx, location, periods)
	default:
		weighted := e.models.Demand
		if module == models.ModuleTourism {
			weighted = e.models.Tourism
		}
		if weighted == nil {
			return nil, models.E(models.KindInvalidConfiguration, "no model configured for module %s", module)
		}
		return e.weightedInputs(ctx, module, location, periods, weighted)
	}
}

// weightedInputs aggregates one feature series per weighted factor and
// normalizes each into [0,1]. A factor's contribution is its distance
// from the neutral midpoint times its weight, so below-average factors
// drag the outlook.
func (e *OutlookEngine) weightedInputs(ctx context.Context, module models.Module, location string, periods []time.Time, weighted *scoring.Weighted) ([]periodInput, error) {
	names, weights := weighted.Weights()
	series := make(map[string][]models.Feature, len(names))
	for _, name := range names {
		feats, err := e.agg.Aggregate(ctx, location, name, periods)
		if err != nil {
			return nil, err
		}
		series[name] = feats
	}

	out := make([]periodInput, len(periods))
	for i, p := range periods {
		featVec := make(map[string]float64, len(names))
		contribs := make([]explain.Contribution, 0, len(names))
		present := 0
		for _, name := range names {
			f := series[name][i]
			spec, _ := e.agg.Spec(name)
			norm := spec.Normalize(f.Value)
			featVec[name] = norm
			if !f.Degraded {
				present++
			}
			contribs = append(contribs, explain.Contribution{
				Source: spec.Source,
				Factor: name,
				Value:  (norm - 0.5) * weights[name],
			})
		}
		out[i] = periodInput{
			in: domsvc.ScoreInput{
				Module:       module,
				Location:     location,
				Period:       p,
				DaysAhead:    i,
				Features:     featVec,
				Completeness: float64(present) / float64(len(names)),
			},
			contribs: contribs,
		}
	}
	return out, nil
}

// cashflowInputs derives one feature snapshot from the trailing
// transaction history and replicates it across the horizon; the model
// has no per-day transaction forecast, so only confidence varies with
// distance.
func (e *OutlookEngine) cashflowInputs(ctx context.Context, location string, periods []time.Time) ([]periodInput, error) {
	window := e.opts.CashflowWindow
	today := domrepo.DayOf(e.opts.Now())
	hist := domrepo.Horizon(today.AddDate(0, 0, -window), window)

	inflow, err := e.agg.Aggregate(ctx, location, "cash_in", hist)
	if err != nil {
		return nil, err
	}
	outflow, err := e.agg.Aggregate(ctx, location, "cash_out", hist)
	if err != nil {
		return nil, err
	}

	inVals := make([]float64, 0, window)
	netVals := make([]float64, 0, window)
	historyDays := 0
	for i := range inflow {
		inVals = append(inVals, inflow[i].Value)
		netVals = append(netVals, outflow[i].Value-inflow[i].Value)
		if !inflow[i].Degraded {
			historyDays++
		}
	}

	halfLife := e.models.CashFlow.HalfLifeDays()
	burn := features.EWMA(netVals, halfLife)
	trendWindow := inVals
	if len(trendWindow) > 30 {
		trendWindow = trendWindow[len(trendWindow)-30:]
	}
	trend := features.TrendPct(trendWindow)
	vol := features.Volatility(inVals)
	inMean := features.Mean(inVals)
	outMean := features.Mean(outVals(outflow))

	featVec := map[string]float64{
		"burn_ewma":    burn,
		"history_days": float64(historyDays),
		"trend_30d":    trend * 100,
		"volatility":   vol,
	}
	if inMean > 0 {
		featVec["fixed_cost_burden"] = outMean / inMean
	}
	if bal, err := e.store.Latest(ctx, models.MetricKey(location, "cash_balance")); err != nil {
		return nil, models.Wrap(models.KindStoreUnavailable, err, "latest balance for %s", location)
	} else if bal != nil {
		featVec["balance"] = bal.Value
	}

	contribs := e.cashflowContribs(burn, trend, vol, inMean, outMean)
	completeness := float64(historyDays) / float64(window)

	out := make([]periodInput, len(periods))
	for i, p := range periods {
		vec := make(map[string]float64, len(featVec))
		for k, v := range featVec {
			vec[k] = v
		}
		out[i] = periodInput{
			in: domsvc.ScoreInput{
				Module:       models.ModuleCashflow,
				Location:     location,
				Period:       p,
				DaysAhead:    i,
				Features:     vec,
				Completeness: completeness,
			},
			contribs: contribs,
		}
	}
	return out, nil
}

// cashflowContribs expresses the drivers on a common unitless scale so
// ranking by magnitude is meaningful.
func (e *OutlookEngine) cashflowContribs(burn, trend, vol, inMean, outMean float64) []explain.Contribution {
	contribs := []explain.Contribution{
		{Source: models.SourceTransactions, Factor: "revenue_trend_30d", Value: trend},
	}
	denom := inMean
	if denom < 1 {
		denom = 1
	}
	contribs = append(contribs, explain.Contribution{
		Source: models.SourceTransactions, Factor: "net_burn", Value: -burn / denom,
	})
	if vol > scoring.VolatilityCaution {
		contribs = append(contribs, explain.Contribution{
			Source: models.SourceTransactions, Factor: "revenue_volatility", Value: -(vol - scoring.VolatilityCaution),
		})
	}
	if inMean > 0 {
		burden := outMean / inMean
		if burden > scoring.BurdenCaution {
			contribs = append(contribs, explain.Contribution{
				Source: models.SourceTransactions, Factor: "fixed_cost_burden", Value: -(burden - scoring.BurdenCaution),
			})
		}
	}
	return contribs
}

// rentInputs feeds the learned model the observed year-over-year rent
// change per period.
func (e *OutlookEngine) rentInputs(ctx context.Context, location string, periods []time.Time) ([]periodInput, error) {
	yoy, err := e.agg.Aggregate(ctx, location, "median_rent", periods)
	if err != nil {
		return nil, err
	}
	baseline := e.models.Rent.Baseline()

	out := make([]periodInput, len(periods))
	for i, p := range periods {
		f := yoy[i]
		yoyPct := f.Value * 100
		featVec := map[string]float64{"rent_yoy_pct": yoyPct}
		if f.Degraded && len(f.Signals) == 0 && f.Value == 0 {
			// No rent observation at all: let the model report the
			// mismatch instead of scoring a fabricated zero change.
			delete(featVec, "rent_yoy_pct")
		}
		z := baseline.ZScore(yoyPct)
		contribs := []explain.Contribution{
			{Source: models.SourceRent, Factor: "rent_yoy_vs_baseline", Value: z},
			{Source: models.SourceRent, Factor: "rent_yoy_pct", Value: yoyPct / 100},
		}
		completeness := 1.0
		if f.Degraded {
			completeness = 0.5
		}
		out[i] = periodInput{
			in: domsvc.ScoreInput{
				Module:       models.ModuleRent,
				Location:     location,
				Period:       p,
				DaysAhead:    i,
				Features:     featVec,
				Completeness: completeness,
			},
			contribs: contribs,
		}
	}
	return out, nil
}

func outVals(feats []models.Feature) []float64 {
	vals := make([]float64, len(feats))
	for i, f := range feats {
		vals[i] = f.Value
	}
	return vals
}

func (e *OutlookEngine) recordTier(module models.Module, location string, tier models.Tier) {
	if e.metrics != nil {
		e.metrics.RecordTier(string(module), location, string(tier))
	}
}

func (e *OutlookEngine) recordError(kind models.ErrorKind) {
	if e.metrics != nil {
		e.metrics.RecordError(string(kind))
	}
}
