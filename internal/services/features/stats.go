package features

import "math"

// EWMA computes an exponentially weighted moving average of values with
// the given half-life in samples. The most recent value carries the
// largest weight. Returns 0 for empty input.
func EWMA(values []float64, halfLife float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if halfLife <= 0 {
		return values[len(values)-1]
	}
	alpha := math.Pow(0.5, 1/halfLife)
	num := 0.0
	den := 0.0
	w := 1.0
	for i := len(values) - 1; i >= 0; i-- {
		num += w * values[i]
		den += w
		w *= alpha
	}
	return num / den
}

// TrendPct compares the mean of the newer half of values against the mean
// of the older half and returns the percent change. Returns 0 when there
// is not enough data or the older half averages to zero.
func TrendPct(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mid := len(values) / 2
	older := Mean(values[:mid])
	newer := Mean(values[mid:])
	if older == 0 {
		return 0
	}
	return (newer - older) / math.Abs(older)
}

// Volatility returns the coefficient of variation (stddev / |mean|).
// Returns 0 for fewer than two samples or a zero mean.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	if m == 0 {
		return 0
	}
	return Std(values) / math.Abs(m)
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Std returns the sample standard deviation, 0 for fewer than two samples.
func Std(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := Mean(values)
	sum2 := 0.0
	for _, v := range values {
		d := v - m
		sum2 += d * d
	}
	variance := sum2 / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Logistic is the standard sigmoid 1 / (1 + e^-x).
func Logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
