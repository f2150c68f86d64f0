package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type BandConfig struct {
	Tier  string  `yaml:"tier"`
	Enter float64 `yaml:"enter"`
	Exit  float64 `yaml:"exit"`
}

type ModuleConfig struct {
	HorizonDecay float64            `yaml:"horizon_decay"`
	LowerIsWorse bool               `yaml:"lower_is_worse"`
	Bands        []BandConfig       `yaml:"bands"`
	Weights      map[string]float64 `yaml:"weights"`
}

type MetricConfig struct {
	Source string  `yaml:"source"`
	Agg    string  `yaml:"agg"`
	Window int     `yaml:"window"`
	Decay  float64 `yaml:"decay"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console | json
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Store struct {
		Backend         string        `yaml:"backend"`          // memory | clickhouse
		IngestTransport string        `yaml:"ingest_transport"` // direct | kafka
		RetentionDays   int           `yaml:"retention_days"`
		MaxFutureLag    time.Duration `yaml:"max_future_lag"`
	} `yaml:"store"`
	Engine struct {
		TopDrivers int                     `yaml:"top_drivers"`
		Modules    map[string]ModuleConfig `yaml:"modules"`
		Cashflow   struct {
			HalfLifeDays    float64 `yaml:"half_life_days"`
			MinHistoryDays  int     `yaml:"min_history_days"`
			HistoryWindow   int     `yaml:"history_window"`
			FloorConfidence float64 `yaml:"floor_confidence"`
		} `yaml:"cashflow"`
		Rent struct {
			ModelPath string `yaml:"model_path"`
		} `yaml:"rent"`
	} `yaml:"engine"`
	Aggregation struct {
		Metrics map[string]MetricConfig `yaml:"metrics"`
	} `yaml:"aggregation"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Providers struct {
		Timeout time.Duration `yaml:"timeout"`
		Weather struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"weather"`
		Events struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"events"`
		RentListings struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"rent_listings"`
		Refresh struct {
			Enabled       bool          `yaml:"enabled"`
			Interval      time.Duration `yaml:"interval"`
			Workers       int           `yaml:"workers"`
			Locations     []string      `yaml:"locations"`
			LookbackDays  int           `yaml:"lookback_days"`
			LookaheadDays int           `yaml:"lookahead_days"`
		} `yaml:"refresh"`
	} `yaml:"providers"`
	CivicFeed struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Locations      []string      `yaml:"locations"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"civicfeed"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("INGEST_TRANSPORT"); v != "" {
		c.Store.IngestTransport = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		c.Providers.Weather.APIKey = v
	}
	if v := os.Getenv("CIVICFEED_API_KEY"); v != "" {
		c.CivicFeed.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.IngestTransport == "" {
		c.Store.IngestTransport = "direct"
	}
	if c.Store.RetentionDays <= 0 {
		c.Store.RetentionDays = 730
	}
	if c.Store.MaxFutureLag <= 0 {
		c.Store.MaxFutureLag = 48 * time.Hour
	}
	if c.Engine.TopDrivers <= 0 {
		c.Engine.TopDrivers = 5
	}
	if c.Engine.Cashflow.HalfLifeDays <= 0 {
		c.Engine.Cashflow.HalfLifeDays = 14
	}
	if c.Engine.Cashflow.MinHistoryDays <= 0 {
		c.Engine.Cashflow.MinHistoryDays = 7
	}
	if c.Engine.Cashflow.HistoryWindow <= 0 {
		c.Engine.Cashflow.HistoryWindow = 90
	}
	if c.Providers.Timeout <= 0 {
		c.Providers.Timeout = 10 * time.Second
	}
	if c.Providers.Refresh.Workers <= 0 {
		c.Providers.Refresh.Workers = 2
	}
	if c.Providers.Refresh.Interval <= 0 {
		c.Providers.Refresh.Interval = time.Hour
	}
	if c.Providers.Refresh.LookbackDays <= 0 {
		c.Providers.Refresh.LookbackDays = 7
	}
	if c.Providers.Refresh.LookaheadDays <= 0 {
		c.Providers.Refresh.LookaheadDays = 2
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid. Weight tables and tier
// ladders are a startup concern: a bad table should stop the process,
// not surface per request.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Store.Backend != "memory" && c.Store.Backend != "clickhouse" {
		return fmt.Errorf("store.backend must be 'memory' or 'clickhouse', got '%s'", c.Store.Backend)
	}
	if c.Store.IngestTransport != "direct" && c.Store.IngestTransport != "kafka" {
		return fmt.Errorf("store.ingest_transport must be 'direct' or 'kafka', got '%s'", c.Store.IngestTransport)
	}
	if c.Store.IngestTransport == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty with the kafka ingest transport")
	}
	if c.Store.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required with the clickhouse backend")
	}

	for name, m := range c.Engine.Modules {
		if m.HorizonDecay <= 0 || m.HorizonDecay > 1 {
			return fmt.Errorf("engine.modules.%s.horizon_decay must be in (0,1], got %v", name, m.HorizonDecay)
		}
		if len(m.Weights) > 0 {
			sum := 0.0
			for factor, w := range m.Weights {
				if w < 0 {
					return fmt.Errorf("engine.modules.%s.weights.%s is negative", name, factor)
				}
				sum += w
			}
			if math.Abs(sum-1) > 1e-9 {
				return fmt.Errorf("engine.modules.%s.weights sum to %v, want 1.0", name, sum)
			}
		}
		for i, b := range m.Bands {
			if b.Tier == "" {
				return fmt.Errorf("engine.modules.%s.bands[%d].tier is required", name, i)
			}
		}
	}

	for name, m := range c.Aggregation.Metrics {
		if m.Source == "" {
			return fmt.Errorf("aggregation.metrics.%s.source is required", name)
		}
		switch m.Agg {
		case "sum", "weighted_mean", "pct_change":
		default:
			return fmt.Errorf("aggregation.metrics.%s.agg must be sum, weighted_mean or pct_change, got '%s'", name, m.Agg)
		}
		if m.Decay <= 0 || m.Decay > 1 {
			return fmt.Errorf("aggregation.metrics.%s.decay must be in (0,1], got %v", name, m.Decay)
		}
	}

	return nil
}
