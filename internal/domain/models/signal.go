package models

import (
	"fmt"
	"time"
)

// Source identifies the external system a signal came from.
type Source string

const (
	SourceTransactions Source = "transactions"
	SourceWeather      Source = "weather"
	SourceEvents       Source = "events"
	SourceTraffic      Source = "traffic"
	SourceRent         Source = "rent"
)

// IsValidSource returns true if s is a known signal source.
func IsValidSource(s Source) bool {
	switch s {
	case SourceTransactions, SourceWeather, SourceEvents, SourceTraffic, SourceRent:
		return true
	default:
		return false
	}
}

// SourceRange returns the declared physical value range for a source.
// Values outside the range are rejected at ingestion.
func SourceRange(s Source) (min, max float64) {
	switch s {
	case SourceTransactions:
		return -1e9, 1e9
	case SourceWeather:
		return -100, 1000 // covers temperature (C), precipitation (mm), wind (kph)
	case SourceEvents:
		return 0, 1e6 // attendance counts
	case SourceTraffic:
		return 0, 1e7 // headcounts are never negative
	case SourceRent:
		return 0, 1e7
	default:
		return 0, 0
	}
}

// Signal is a single timestamped, sourced data point. Timestamps are
// day-granular UTC; (Source, Metric, Timestamp) is the identity and
// re-ingesting the same identity overwrites the prior value.
type Signal struct {
	Source    Source    `json:"source"`
	Metric    string    `json:"metric"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
}

// Key returns the identity string of the signal stream plus day.
func (s Signal) Key() string {
	return fmt.Sprintf("%s|%s|%s", s.Source, s.Metric, s.Timestamp.UTC().Format("2006-01-02"))
}

// SignalRef points at a stored signal that contributed to a derived value.
type SignalRef struct {
	Source    Source    `json:"source"`
	Metric    string    `json:"metric"`
	Timestamp time.Time `json:"timestamp"`
}

// Ref returns a reference to the signal.
func (s Signal) Ref() SignalRef {
	return SignalRef{Source: s.Source, Metric: s.Metric, Timestamp: s.Timestamp}
}

// MetricKey scopes a base metric name to a location. Signals carry no
// location of their own; the stream name does.
func MetricKey(location, base string) string {
	return location + "/" + base
}
