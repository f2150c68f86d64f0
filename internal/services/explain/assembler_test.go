package explain

import (
	"math"
	"testing"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
)

func TestAssembleRanksAndNormalizes(t *testing.T) {
	a := New(5)
	drivers, truncated, _ := a.Assemble(models.TierHigh, "santa-cruz", []Contribution{
		{Source: models.SourceWeather, Factor: "temperature", Value: 0.1},
		{Source: models.SourceEvents, Factor: "local_festival", Value: 0.3},
		{Source: models.SourceTraffic, Factor: "foot_traffic", Value: -0.2},
	})
	if truncated {
		t.Fatalf("three drivers under a cap of five must not truncate")
	}
	if drivers[0].Factor != "local_festival" || drivers[1].Factor != "foot_traffic" {
		t.Fatalf("wrong order: %v", drivers)
	}
	sum := 0.0
	for _, d := range drivers {
		if d.Weight < 0 || d.Weight > 1 {
			t.Fatalf("weight out of bounds: %v", d.Weight)
		}
		sum += d.Weight
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("untruncated weights must sum to 1, got %v", sum)
	}
	if drivers[1].Impact != models.ImpactNegative {
		t.Fatalf("negative contribution must be a negative driver")
	}
}

func TestAssembleTruncation(t *testing.T) {
	a := New(2)
	drivers, truncated, _ := a.Assemble(models.TierModerate, "santa-cruz", []Contribution{
		{Source: models.SourceWeather, Factor: "temperature", Value: 0.4},
		{Source: models.SourceEvents, Factor: "local_festival", Value: 0.3},
		{Source: models.SourceTraffic, Factor: "foot_traffic", Value: 0.3},
	})
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if len(drivers) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(drivers))
	}
	sum := 0.0
	for _, d := range drivers {
		sum += d.Weight
	}
	if sum >= 1 {
		t.Fatalf("truncated weights must keep their share of the full mass, got sum %v", sum)
	}
	if math.Abs(sum-0.7) > 1e-9 {
		t.Fatalf("kept shares: got %v want 0.7", sum)
	}
}

func TestAssembleDeterministicTieBreak(t *testing.T) {
	a := New(5)
	contribs := []Contribution{
		{Source: models.SourceEvents, Factor: "concert", Value: 0.25},
		{Source: models.SourceWeather, Factor: "temperature", Value: 0.25},
	}
	first, _, s1 := a.Assemble(models.TierHigh, "santa-cruz", contribs)
	second, _, s2 := a.Assemble(models.TierHigh, "santa-cruz", contribs)
	if first[0].Factor != second[0].Factor || s1 != s2 {
		t.Fatalf("assembly must be deterministic")
	}
	if first[0].Factor != "concert" {
		t.Fatalf("ties break on factor name: got %q", first[0].Factor)
	}
}

func TestSummaryTemplates(t *testing.T) {
	a := New(5)
	_, _, up := a.Assemble(models.TierVeryHigh, "santa-cruz", []Contribution{
		{Source: models.SourceEvents, Factor: "boardwalk_festival", Value: 0.5},
	})
	if up != "Exceptional demand expected in santa-cruz; boardwalk_festival is lifting the outlook." {
		t.Fatalf("unexpected summary %q", up)
	}
	_, _, flat := a.Assemble(models.TierSettled, "santa-cruz", nil)
	if flat != "Rent conditions look settled in santa-cruz; no single factor dominates." {
		t.Fatalf("unexpected summary %q", flat)
	}
}
