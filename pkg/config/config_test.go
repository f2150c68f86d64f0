package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimal = `
environment: test
store:
  backend: memory
`

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Store.IngestTransport != "direct" {
		t.Fatalf("default transport: got %q", c.Store.IngestTransport)
	}
	if c.Store.MaxFutureLag != 48*time.Hour {
		t.Fatalf("default max_future_lag: got %v", c.Store.MaxFutureLag)
	}
	if c.Engine.TopDrivers != 5 {
		t.Fatalf("default top_drivers: got %d", c.Engine.TopDrivers)
	}
	if c.Providers.Refresh.LookbackDays != 7 || c.Providers.Refresh.LookaheadDays != 2 {
		t.Fatalf("default refresh window: got -%d/+%d days",
			c.Providers.Refresh.LookbackDays, c.Providers.Refresh.LookaheadDays)
	}
}

func TestValidateBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\nstore:\n  backend: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestValidateWeights(t *testing.T) {
	body := minimal + `
engine:
  modules:
    demand:
      horizon_decay: 0.9
      weights:
        weather: 0.5
        events: 0.6
`
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "weights sum") {
		t.Fatalf("expected weight sum error, got %v", err)
	}
}

func TestValidateHorizonDecay(t *testing.T) {
	body := minimal + `
engine:
  modules:
    demand:
      horizon_decay: 1.5
`
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "horizon_decay") {
		t.Fatalf("expected decay error, got %v", err)
	}
}

func TestValidateAggregation(t *testing.T) {
	body := minimal + `
aggregation:
  metrics:
    cash_in:
      source: transactions
      agg: median
      decay: 0.9
`
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "agg must be") {
		t.Fatalf("expected agg error, got %v", err)
	}
}

func TestKafkaTransportNeedsBrokers(t *testing.T) {
	body := "environment: test\nstore:\n  backend: memory\n  ingest_transport: kafka\n"
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "kafka.brokers") {
		t.Fatalf("expected brokers error, got %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_TOPIC", "harbor.signals.test")
	c, err := LoadWithEnv(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Kafka.Topic != "harbor.signals.test" {
		t.Fatalf("env override: got %q", c.Kafka.Topic)
	}
}
