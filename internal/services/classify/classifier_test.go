package classify

import (
	"context"
	"testing"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/repository"
)

func demandConfig() Config {
	return Config{
		Module: models.ModuleDemand,
		Bands: []Band{
			{Tier: models.TierLow},
			{Tier: models.TierModerate, Enter: 0.35, Exit: 0.30},
			{Tier: models.TierHigh, Enter: 0.60, Exit: 0.55},
			{Tier: models.TierVeryHigh, Enter: 0.85, Exit: 0.80},
		},
	}
}

func cashflowConfig() Config {
	return Config{
		Module:       models.ModuleCashflow,
		LowerIsWorse: true,
		Bands: []Band{
			{Tier: models.TierStable},
			{Tier: models.TierWatch, Enter: 45, Exit: 50},
			{Tier: models.TierCritical, Enter: 15, Exit: 20},
		},
	}
}

func TestNewRejectsBadLadders(t *testing.T) {
	state := repository.NewMemoryTierStateStore()

	wrongOrder := demandConfig()
	wrongOrder.Bands[1].Tier, wrongOrder.Bands[2].Tier = wrongOrder.Bands[2].Tier, wrongOrder.Bands[1].Tier
	if _, err := New(wrongOrder, state); !models.IsKind(err, models.KindInvalidConfiguration) {
		t.Fatalf("wrong order: expected invalid_configuration, got %v", err)
	}

	short := demandConfig()
	short.Bands = short.Bands[:2]
	if _, err := New(short, state); !models.IsKind(err, models.KindInvalidConfiguration) {
		t.Fatalf("short ladder: expected invalid_configuration, got %v", err)
	}

	inverted := demandConfig()
	inverted.Bands[2].Exit = 0.70
	if _, err := New(inverted, state); !models.IsKind(err, models.KindInvalidConfiguration) {
		t.Fatalf("exit above enter: expected invalid_configuration, got %v", err)
	}
}

func TestFirstClassificationUsesEnter(t *testing.T) {
	c, err := New(demandConfig(), repository.NewMemoryTierStateStore())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tier, err := c.Classify(context.Background(), "santa-cruz", 0.62)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if tier != models.TierHigh {
		t.Fatalf("got %q want %q", tier, models.TierHigh)
	}
}

func TestHysteresisHoldsInsideGap(t *testing.T) {
	c, err := New(demandConfig(), repository.NewMemoryTierStateStore())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	loc := "santa-cruz"

	steps := []struct {
		score float64
		want  models.Tier
	}{
		{0.62, models.TierHigh},     // enters high
		{0.57, models.TierHigh},     // below enter but above exit: holds
		{0.53, models.TierModerate}, // below exit: drops one band
		{0.58, models.TierModerate}, // below enter again: holds
		{0.61, models.TierHigh},     // crosses enter: climbs back
	}
	for i, s := range steps {
		got, err := c.Classify(ctx, loc, s.score)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != s.want {
			t.Fatalf("step %d (score %v): got %q want %q", i, s.score, got, s.want)
		}
	}
}

func TestOscillationAroundBoundary(t *testing.T) {
	c, err := New(demandConfig(), repository.NewMemoryTierStateStore())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	loc := "santa-cruz"

	// Oscillate inside the gap between exit 0.55 and enter 0.60: after the
	// initial climb the tier must never move again.
	if _, err := c.Classify(ctx, loc, 0.62); err != nil {
		t.Fatalf("seed: %v", err)
	}
	flaps := 0
	prev := models.TierHigh
	scores := []float64{0.56, 0.59, 0.56, 0.59, 0.56, 0.59}
	for _, s := range scores {
		got, err := c.Classify(ctx, loc, s)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if got != prev {
			flaps++
			prev = got
		}
	}
	if flaps != 0 {
		t.Fatalf("expected no tier changes inside the gap, saw %d", flaps)
	}
}

func TestMultiBandDrop(t *testing.T) {
	c, err := New(demandConfig(), repository.NewMemoryTierStateStore())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := c.Classify(ctx, "sc", 0.9); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := c.Classify(ctx, "sc", 0.1)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != models.TierLow {
		t.Fatalf("collapse must fall through every exit: got %q", got)
	}
}

func TestLowerIsWorseRunway(t *testing.T) {
	c, err := New(cashflowConfig(), repository.NewMemoryTierStateStore())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	tier, err := c.Classify(ctx, "santa-cruz", 26.7)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if tier != models.TierWatch {
		t.Fatalf("runway 26.7 days: got %q want %q", tier, models.TierWatch)
	}

	tier, _ = c.Classify(ctx, "santa-cruz", 12)
	if tier != models.TierCritical {
		t.Fatalf("runway 12 days: got %q want %q", tier, models.TierCritical)
	}

	// Recovery to 47 days clears critical but is still under the watch
	// exit of 50, so the tier holds at watch.
	tier, _ = c.Classify(ctx, "santa-cruz", 47)
	if tier != models.TierWatch {
		t.Fatalf("runway 47 days: got %q want %q", tier, models.TierWatch)
	}

	tier, _ = c.Classify(ctx, "santa-cruz", 55)
	if tier != models.TierStable {
		t.Fatalf("runway 55 days: got %q want %q", tier, models.TierStable)
	}
}

func TestStateIsolatedPerKey(t *testing.T) {
	state := repository.NewMemoryTierStateStore()
	c, err := New(demandConfig(), state)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := c.Classify(ctx, "santa-cruz", 0.9); err != nil {
		t.Fatalf("classify: %v", err)
	}
	got, err := c.Classify(ctx, "monterey", 0.57)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != models.TierModerate {
		t.Fatalf("fresh key must not inherit another location's state: got %q", got)
	}
}
