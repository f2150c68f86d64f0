package models

import "time"

// Module identifies one of the four analytical modules.
type Module string

const (
	ModuleCashflow Module = "cashflow"
	ModuleTourism  Module = "tourism"
	ModuleRent     Module = "rent"
	ModuleDemand   Module = "demand"
)

// IsValidModule returns true if m is a supported module.
func IsValidModule(m Module) bool {
	switch m {
	case ModuleCashflow, ModuleTourism, ModuleRent, ModuleDemand:
		return true
	default:
		return false
	}
}

// DefaultModule returns the default module for outlook queries.
func DefaultModule() Module { return ModuleDemand }

// NormalizeModule converts a raw string to a valid module (or default).
func NormalizeModule(s string) Module {
	if s == "" {
		return DefaultModule()
	}
	m := Module(s)
	if IsValidModule(m) {
		return m
	}
	return DefaultModule()
}

// Tier is an ordered discrete severity/level label, serialized as a
// lowercase snake_case string.
type Tier string

const (
	// cashflow
	TierStable   Tier = "stable"
	TierWatch    Tier = "watch"
	TierCritical Tier = "critical"
	// tourism and demand
	TierLow      Tier = "low"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
	TierVeryHigh Tier = "very_high"
	// rent
	TierSettled    Tier = "settled"
	TierElevated   Tier = "elevated"
	TierHikeLikely Tier = "hike_likely"
)

// TiersFor returns the ordered tier ladder for a module, least severe first.
func TiersFor(m Module) []Tier {
	switch m {
	case ModuleCashflow:
		return []Tier{TierStable, TierWatch, TierCritical}
	case ModuleRent:
		return []Tier{TierSettled, TierElevated, TierHikeLikely}
	default:
		return []Tier{TierLow, TierModerate, TierHigh, TierVeryHigh}
	}
}

// Impact classifies the direction of a driver's contribution.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// Feature is a period-aggregated value derived from stored signals. It is
// a computation cache, never ground truth: re-aggregating an unchanged
// store yields an identical feature.
type Feature struct {
	Period   time.Time   `json:"period"`
	Metric   string      `json:"metric"`
	Value    float64     `json:"value"`
	Degraded bool        `json:"degraded"`
	Signals  []SignalRef `json:"signals,omitempty"`
}

// Score is a module's numeric assessment of one period.
type Score struct {
	Period     time.Time   `json:"period"`
	Module     Module      `json:"module"`
	Value      float64     `json:"value"`
	Confidence float64     `json:"confidence"`
	Markers    []ErrorKind `json:"markers,omitempty"`
}

// Driver is a ranked, weighted explanatory factor behind a score.
type Driver struct {
	Source Source  `json:"source"`
	Factor string  `json:"factor"`
	Impact Impact  `json:"impact"`
	Weight float64 `json:"weight"`
}

// Day marshals as an ISO date without a time component.
type Day struct{ time.Time }

// MarshalJSON renders the day as "2006-01-02".
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.UTC().Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON parses "2006-01-02".
func (d *Day) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Outlook is the per-day unit returned to callers. DemandLevel mirrors
// Tier for tourism/demand callers of the legacy API shape.
type Outlook struct {
	Date             Day         `json:"date"`
	Tier             Tier        `json:"tier"`
	DemandLevel      Tier        `json:"demand_level,omitempty"`
	Confidence       float64     `json:"confidence"`
	Drivers          []Driver    `json:"drivers"`
	Summary          string      `json:"summary"`
	DriversTruncated bool        `json:"drivers_truncated,omitempty"`
	Degraded         bool        `json:"degraded,omitempty"`
	Markers          []ErrorKind `json:"markers,omitempty"`
}

// OutlookResponse is one module's ordered horizon for a location.
type OutlookResponse struct {
	Location    string    `json:"location"`
	Module      Module    `json:"module"`
	GeneratedAt time.Time `json:"generated_at"`
	Outlook     []Outlook `json:"outlook"`
}

// AggregateOutlooks is a consolidated view across all modules for one
// location. Modules that failed are reported in Errors instead of
// aborting the rest.
type AggregateOutlooks struct {
	Location    string                      `json:"location"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Modules     map[Module]*OutlookResponse `json:"modules"`
	Errors      map[Module]string           `json:"errors,omitempty"`
}
