package features

import (
	"math"
	"testing"
)

func TestEWMAWeightsRecent(t *testing.T) {
	flat := EWMA([]float64{10, 10, 10}, 7)
	if math.Abs(flat-10) > 1e-9 {
		t.Fatalf("flat series: got %v want 10", flat)
	}
	rising := EWMA([]float64{10, 20, 30}, 2)
	if rising <= Mean([]float64{10, 20, 30}) {
		t.Fatalf("ewma of rising series should exceed mean, got %v", rising)
	}
	if EWMA(nil, 7) != 0 {
		t.Fatalf("empty input should yield 0")
	}
}

func TestTrendPct(t *testing.T) {
	up := TrendPct([]float64{100, 100, 150, 150})
	if math.Abs(up-0.5) > 1e-9 {
		t.Fatalf("trend: got %v want 0.5", up)
	}
	if TrendPct([]float64{5}) != 0 {
		t.Fatalf("single sample must be 0")
	}
}

func TestVolatility(t *testing.T) {
	if Volatility([]float64{10, 10, 10}) != 0 {
		t.Fatalf("constant series has zero volatility")
	}
	v := Volatility([]float64{10, 30})
	if v <= 0 {
		t.Fatalf("dispersed series must have positive volatility, got %v", v)
	}
}

func TestLogistic(t *testing.T) {
	if math.Abs(Logistic(0)-0.5) > 1e-9 {
		t.Fatalf("logistic(0) must be 0.5")
	}
	if Logistic(10) <= Logistic(-10) {
		t.Fatalf("logistic must be increasing")
	}
}
