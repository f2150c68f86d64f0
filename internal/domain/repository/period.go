package repository

import "time"

// DayOf truncates t to the start of its UTC day. Signal identity and
// outlook periods are day-granular.
func DayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// Horizon returns days consecutive day starts beginning at from's day.
func Horizon(from time.Time, days int) []time.Time {
	if days <= 0 {
		return nil
	}
	start := DayOf(from)
	out := make([]time.Time, days)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}
