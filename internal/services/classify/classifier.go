package classify

import (
	"context"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// Band is one step of a module's tier ladder. Enter is the score needed
// to move up into the band; Exit is the score needed to stay in it once
// held. An Exit below Enter opens the hysteresis gap that absorbs
// boundary noise. The base band of a ladder has no thresholds.
type Band struct {
	Tier  models.Tier `yaml:"tier"`
	Enter float64     `yaml:"enter"`
	Exit  float64     `yaml:"exit"`
}

// Config describes one module's ladder. LowerIsWorse flips orientation
// for modules where a smaller score is the worse one (cashflow runway).
type Config struct {
	Module       models.Module `yaml:"module"`
	Bands        []Band        `yaml:"bands"`
	LowerIsWorse bool          `yaml:"lower_is_worse"`
}

// Classifier maps scores to tiers with per-(module, location) hysteresis
// state. Tier is a pure function of the score and the stored previous
// tier; the state store serializes writers per key.
type Classifier struct {
	cfg   Config
	bands []Band // orientation-normalized: severity rises with index
	state domrepo.TierStateStore
}

// New validates the ladder against the module's canonical tier order.
func New(cfg Config, state domrepo.TierStateStore) (*Classifier, error) {
	ladder := models.TiersFor(cfg.Module)
	if len(cfg.Bands) != len(ladder) {
		return nil, models.E(models.KindInvalidConfiguration, "%s: ladder has %d bands, want %d", cfg.Module, len(cfg.Bands), len(ladder))
	}
	bands := make([]Band, len(cfg.Bands))
	for i, b := range cfg.Bands {
		if b.Tier != ladder[i] {
			return nil, models.E(models.KindInvalidConfiguration, "%s: band %d is %q, want %q", cfg.Module, i, b.Tier, ladder[i])
		}
		bands[i] = b
		if cfg.LowerIsWorse {
			bands[i].Enter = -b.Enter
			bands[i].Exit = -b.Exit
		}
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Exit > bands[i].Enter {
			return nil, models.E(models.KindInvalidConfiguration, "%s: band %q exit tighter than enter", cfg.Module, bands[i].Tier)
		}
		if i > 1 && bands[i].Enter <= bands[i-1].Enter {
			return nil, models.E(models.KindInvalidConfiguration, "%s: band %q enter not above previous band", cfg.Module, bands[i].Tier)
		}
	}
	return &Classifier{cfg: cfg, bands: bands, state: state}, nil
}

func (c *Classifier) Module() models.Module { return c.cfg.Module }

// Classify resolves the tier for a score and persists it. The read,
// decision and write run inside the store's per-key critical section.
func (c *Classifier) Classify(ctx context.Context, location string, score float64) (models.Tier, error) {
	var out models.Tier
	err := c.state.Update(ctx, c.cfg.Module, location, func(prev models.Tier, ok bool) (models.Tier, error) {
		out = c.Next(prev, ok, score)
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// State returns the stored tier for a location without reclassifying.
func (c *Classifier) State(ctx context.Context, location string) (models.Tier, bool, error) {
	return c.state.Get(ctx, c.cfg.Module, location)
}

// Next computes the tier transition without touching state. The first
// classification of a key decides by enter thresholds alone.
func (c *Classifier) Next(prev models.Tier, hasPrev bool, score float64) models.Tier {
	v := score
	if c.cfg.LowerIsWorse {
		v = -score
	}
	if !hasPrev {
		return c.bands[c.direct(v)].Tier
	}
	idx := c.indexOf(prev)
	for idx > 0 && v < c.bands[idx].Exit {
		idx--
	}
	if d := c.direct(v); d > idx {
		idx = d
	}
	return c.bands[idx].Tier
}

// direct returns the highest band whose enter threshold the value meets.
func (c *Classifier) direct(v float64) int {
	idx := 0
	for i := 1; i < len(c.bands); i++ {
		if v >= c.bands[i].Enter {
			idx = i
		}
	}
	return idx
}

func (c *Classifier) indexOf(t models.Tier) int {
	for i, b := range c.bands {
		if b.Tier == t {
			return i
		}
	}
	return 0
}
