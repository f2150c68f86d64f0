package di

import (
	"testing"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	internalrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/config"
)

// The pure providers must build from both an empty config (built-in
// defaults) and the shipped config file, so a fresh checkout starts.

func TestProvideClassifiersFromDefaults(t *testing.T) {
	cfg := &config.Config{}
	classifiers, err := ProvideClassifiers(cfg, internalrepo.NewMemoryTierStateStore())
	if err != nil {
		t.Fatalf("classifiers from defaults: %v", err)
	}
	for _, m := range []models.Module{models.ModuleCashflow, models.ModuleTourism, models.ModuleRent, models.ModuleDemand} {
		if classifiers[m] == nil {
			t.Errorf("missing classifier for %s", m)
		}
	}
}

func TestProvidersFromShippedConfig(t *testing.T) {
	cfg, err := config.Load("../../config/config.yaml")
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}

	classifiers, err := ProvideClassifiers(cfg, internalrepo.NewMemoryTierStateStore())
	if err != nil {
		t.Fatalf("classifiers from shipped config: %v", err)
	}
	if len(classifiers) != 4 {
		t.Fatalf("classifiers: got %d, want 4", len(classifiers))
	}

	if _, err := ProvideModels(cfg); err != nil {
		t.Fatalf("models from shipped config: %v", err)
	}

	store := internalrepo.NewMemorySignalStore()
	if agg := ProvideAggregator(cfg, store); agg == nil {
		t.Fatal("aggregator from shipped config is nil")
	}

	state, err := ProvideTierState(cfg)
	if err != nil {
		t.Fatalf("tier state from shipped config: %v", err)
	}
	if state == nil {
		t.Fatal("tier state is nil")
	}
}

func TestClassifierConfigMayOmitBaseBand(t *testing.T) {
	cfg := &config.Config{}
	cfg.Engine.Modules = map[string]config.ModuleConfig{
		"cashflow": {
			LowerIsWorse: true,
			Bands: []config.BandConfig{
				{Tier: "watch", Enter: 45, Exit: 50},
				{Tier: "critical", Enter: 15, Exit: 20},
			},
		},
	}
	if _, err := ProvideClassifiers(cfg, internalrepo.NewMemoryTierStateStore()); err != nil {
		t.Fatalf("thresholded-only band list must get the base tier injected: %v", err)
	}
}
