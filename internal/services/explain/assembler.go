package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
)

const neutralEps = 1e-12

// Contribution is one factor's signed share of a score before ranking.
type Contribution struct {
	Source models.Source
	Factor string
	Value  float64
}

// Assembler ranks contributions into a bounded driver set plus a
// deterministic one-sentence summary. No generative calls; the same
// inputs always produce the same explanation.
type Assembler struct {
	topK int
}

func New(topK int) *Assembler {
	if topK <= 0 {
		topK = 5
	}
	return &Assembler{topK: topK}
}

// Assemble returns drivers sorted by weight descending. When the set is
// truncated to the top K, the kept weights retain their share of the
// full contribution mass (and so sum below 1); an untruncated set is
// normalized to sum exactly 1.
func (a *Assembler) Assemble(tier models.Tier, location string, contribs []Contribution) ([]models.Driver, bool, string) {
	ranked := make([]Contribution, len(contribs))
	copy(ranked, contribs)
	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := math.Abs(ranked[i].Value), math.Abs(ranked[j].Value)
		if ai != aj {
			return ai > aj
		}
		return ranked[i].Factor < ranked[j].Factor
	})

	mass := 0.0
	for _, c := range ranked {
		mass += math.Abs(c.Value)
	}

	truncated := len(ranked) > a.topK
	if truncated {
		ranked = ranked[:a.topK]
	}

	drivers := make([]models.Driver, 0, len(ranked))
	for _, c := range ranked {
		w := 0.0
		if mass > 0 {
			w = math.Abs(c.Value) / mass
		}
		drivers = append(drivers, models.Driver{
			Source: c.Source,
			Factor: c.Factor,
			Impact: impactOf(c.Value),
			Weight: w,
		})
	}

	return drivers, truncated, a.summary(tier, location, drivers)
}

func impactOf(v float64) models.Impact {
	switch {
	case v > neutralEps:
		return models.ImpactPositive
	case v < -neutralEps:
		return models.ImpactNegative
	default:
		return models.ImpactNeutral
	}
}

// summary builds the sentence from the tier phrase and the dominant
// driver's direction.
func (a *Assembler) summary(tier models.Tier, location string, drivers []models.Driver) string {
	head := tierPhrase(tier)
	if len(drivers) == 0 || drivers[0].Weight == 0 {
		return fmt.Sprintf("%s in %s; no single factor dominates.", head, location)
	}
	top := drivers[0]
	switch top.Impact {
	case models.ImpactPositive:
		return fmt.Sprintf("%s in %s; %s is lifting the outlook.", head, location, top.Factor)
	case models.ImpactNegative:
		return fmt.Sprintf("%s in %s; %s is dragging the outlook.", head, location, top.Factor)
	default:
		return fmt.Sprintf("%s in %s; %s is holding the outlook level.", head, location, top.Factor)
	}
}

func tierPhrase(tier models.Tier) string {
	switch tier {
	case models.TierStable:
		return "Cash position is stable"
	case models.TierWatch:
		return "Cash position needs watching"
	case models.TierCritical:
		return "Cash runway is critically short"
	case models.TierLow:
		return "Quiet demand expected"
	case models.TierModerate:
		return "Moderate demand expected"
	case models.TierHigh:
		return "High demand expected"
	case models.TierVeryHigh:
		return "Exceptional demand expected"
	case models.TierSettled:
		return "Rent conditions look settled"
	case models.TierElevated:
		return "Rent pressure is elevated"
	case models.TierHikeLikely:
		return "A rent hike looks likely"
	default:
		return "Outlook computed"
	}
}
