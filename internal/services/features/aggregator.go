package features

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// AggKind selects how raw signals collapse into a per-period feature.
type AggKind string

const (
	AggSum          AggKind = "sum"
	AggWeightedMean AggKind = "weighted_mean"
	AggPctChange    AggKind = "pct_change"
)

// Spec describes the aggregation of one base metric.
type Spec struct {
	Source models.Source
	Kind   AggKind
	Window int     // trailing days feeding one period, min 1
	Decay  float64 // per-day fallback decay and recency weight base, in (0,1]
	Min    float64 // normalization range for index features
	Max    float64
}

func (s Spec) window() int {
	if s.Window < 1 {
		return 1
	}
	return s.Window
}

func (s Spec) decay() float64 {
	if s.Decay <= 0 || s.Decay > 1 {
		return 1
	}
	return s.Decay
}

// Normalize maps v into [0,1] against the spec's declared range.
func (s Spec) Normalize(v float64) float64 {
	if s.Max <= s.Min {
		return Clamp(v, 0, 1)
	}
	return Clamp((v-s.Min)/(s.Max-s.Min), 0, 1)
}

// Aggregator turns stored signals into per-period features. It is a pure
// read of the store snapshot: the same store state always yields the same
// features.
type Aggregator struct {
	store domrepo.SignalStore
	specs map[string]Spec
}

func NewAggregator(store domrepo.SignalStore, specs map[string]Spec) *Aggregator {
	return &Aggregator{store: store, specs: specs}
}

// Spec returns the aggregation spec for a base metric.
func (a *Aggregator) Spec(base string) (Spec, bool) {
	s, ok := a.specs[base]
	return s, ok
}

// Aggregate computes one feature per requested period for a base metric
// scoped to a location. Periods must be day starts in ascending order.
// Periods with no contributing signals fall back to the most recent prior
// value decayed per day of gap and are marked Degraded.
func (a *Aggregator) Aggregate(ctx context.Context, location, base string, periods []time.Time) ([]models.Feature, error) {
	if len(periods) == 0 {
		return nil, nil
	}
	spec, ok := a.specs[base]
	if !ok {
		return nil, models.E(models.KindInvalidConfiguration, "no aggregation spec for metric %q", base)
	}

	metric := models.MetricKey(location, base)
	lookback := spec.window()
	if spec.Kind == AggPctChange {
		lookback++
	}
	from := domrepo.DayOf(periods[0]).AddDate(0, 0, -lookback)
	to := domrepo.DayOf(periods[len(periods)-1])
	signals, err := a.store.Range(ctx, metric, from, to)
	if err != nil {
		return nil, models.Wrap(models.KindStoreUnavailable, err, "range %s", metric)
	}

	byDay := make(map[time.Time]*models.Signal, len(signals))
	for _, s := range signals {
		byDay[domrepo.DayOf(s.Timestamp)] = s
	}

	out := make([]models.Feature, 0, len(periods))
	var lastValue float64
	var lastDay time.Time
	haveLast := false

	for _, p := range periods {
		day := domrepo.DayOf(p)
		value, refs, present := a.collapse(spec, byDay, day)
		f := models.Feature{Period: day, Metric: base}
		if present {
			f.Value = value
			f.Signals = refs
			lastValue, lastDay, haveLast = value, day, true
		} else {
			f.Degraded = true
			if haveLast {
				gap := int(day.Sub(lastDay).Hours() / 24)
				f.Value = lastValue * math.Pow(spec.decay(), float64(gap))
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// collapse folds the trailing window of signals for one day into a value.
func (a *Aggregator) collapse(spec Spec, byDay map[time.Time]*models.Signal, day time.Time) (float64, []models.SignalRef, bool) {
	var refs []models.SignalRef
	switch spec.Kind {
	case AggSum:
		sum := 0.0
		for i := 0; i < spec.window(); i++ {
			if s, ok := byDay[day.AddDate(0, 0, -i)]; ok {
				sum += s.Value
				refs = append(refs, s.Ref())
			}
		}
		if len(refs) == 0 {
			return 0, nil, false
		}
		sortRefs(refs)
		return sum, refs, true

	case AggWeightedMean:
		num, den := 0.0, 0.0
		w := 1.0
		for i := 0; i < spec.window(); i++ {
			if s, ok := byDay[day.AddDate(0, 0, -i)]; ok {
				num += w * s.Value
				den += w
				refs = append(refs, s.Ref())
			}
			w *= spec.decay()
		}
		if den == 0 {
			return 0, nil, false
		}
		sortRefs(refs)
		return num / den, refs, true

	case AggPctChange:
		cur, okCur := byDay[day]
		prev, okPrev := byDay[day.AddDate(0, 0, -spec.window())]
		if !okCur || !okPrev || prev.Value == 0 {
			return 0, nil, false
		}
		refs = append(refs, prev.Ref(), cur.Ref())
		return (cur.Value - prev.Value) / math.Abs(prev.Value), refs, true

	default:
		return 0, nil, false
	}
}

// Completeness returns the share of non-degraded features, in [0,1].
func Completeness(feats []models.Feature) float64 {
	if len(feats) == 0 {
		return 0
	}
	n := 0
	for _, f := range feats {
		if !f.Degraded {
			n++
		}
	}
	return float64(n) / float64(len(feats))
}

func sortRefs(refs []models.SignalRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Timestamp.Before(refs[j].Timestamp) })
}
