package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/handler/api"
	mid "github.com/varunnair1234/HarborProject-CruzHacks26/internal/middleware"
	internalrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/repository"
	icache "github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/cache"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/civicfeed"
	imetrics "github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/metrics"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/providers"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/ratelimit"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/refresh"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/classify"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/features"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/scoring"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/usecase"
	pkgcache "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/cache"
	pkgch "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/clickhouse"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/config"
	pkgkafka "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/kafka"
	applogger "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/metrics"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/queue"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	imetrics.Register()
	return metrics.New()
}

// ProvideSignalStore builds the configured store backend and runs its
// schema init.
func ProvideSignalStore(cfg *config.Config) (domrepo.SignalStore, error) {
	if cfg.Store.Backend == "memory" {
		return internalrepo.NewMemorySignalStore(), nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	table := cfg.ClickHouse.Table
	if table == "" {
		table = "signals"
	}
	store := internalrepo.NewClickHouseSignalStore(client.DB(), table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return store, nil
}

// ProvidePublisher creates the Kafka publisher when the async ingest
// transport is enabled. With the direct transport it stays nil and the
// ingestor writes straight to the store.
func ProvidePublisher(cfg *config.Config) (domrepo.Publisher, error) {
	if cfg.Store.IngestTransport != "kafka" {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideTierState creates the hysteresis state store. With Redis
// configured the state is shared across replicas and survives restarts.
func ProvideTierState(cfg *config.Config) (domrepo.TierStateStore, error) {
	if cfg.Cache.Addr == "" {
		return internalrepo.NewMemoryTierStateStore(), nil
	}

	host, port, err := splitAddr(cfg.Cache.Addr)
	if err != nil {
		return nil, fmt.Errorf("cache.addr: %w", err)
	}
	svc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Password),
		pkgcache.WithRedisDB(cfg.Cache.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("tier state redis: %w", err)
	}
	return internalrepo.NewRedisTierStateStore(svc), nil
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// defaultMetricSpecs covers deployments that do not override aggregation
// in YAML.
func defaultMetricSpecs() map[string]features.Spec {
	return map[string]features.Spec{
		"cash_in":      {Source: models.SourceTransactions, Kind: features.AggSum, Window: 1, Decay: 0.9},
		"cash_out":     {Source: models.SourceTransactions, Kind: features.AggSum, Window: 1, Decay: 0.9},
		"weather":      {Source: models.SourceWeather, Kind: features.AggWeightedMean, Window: 1, Decay: 0.9, Min: 0, Max: 100},
		"events":       {Source: models.SourceEvents, Kind: features.AggWeightedMean, Window: 1, Decay: 0.9, Min: 0, Max: 10000},
		"foot_traffic": {Source: models.SourceTraffic, Kind: features.AggWeightedMean, Window: 7, Decay: 0.9, Min: 0, Max: 50000},
		"median_rent":  {Source: models.SourceRent, Kind: features.AggPctChange, Window: 365, Decay: 1},
	}
}

// ProvideAggregator builds the feature aggregator from configured metric
// specs, falling back to the built-in table.
func ProvideAggregator(cfg *config.Config, store domrepo.SignalStore) *features.Aggregator {
	specs := defaultMetricSpecs()
	for name, m := range cfg.Aggregation.Metrics {
		specs[name] = features.Spec{
			Source: models.Source(m.Source),
			Kind:   features.AggKind(m.Agg),
			Window: m.Window,
			Decay:  m.Decay,
			Min:    m.Min,
			Max:    m.Max,
		}
	}
	return features.NewAggregator(store, specs)
}

func defaultWeights() map[string]float64 {
	return map[string]float64{"weather": 0.3, "events": 0.4, "foot_traffic": 0.3}
}

// ProvideModels builds the scoring models from config. Bad weight tables
// and rent artifacts fail startup here instead of per request.
func ProvideModels(cfg *config.Config) (usecase.Models, error) {
	tourismWeights := defaultWeights()
	demandWeights := defaultWeights()
	if m, ok := cfg.Engine.Modules["tourism"]; ok && len(m.Weights) > 0 {
		tourismWeights = m.Weights
	}
	if m, ok := cfg.Engine.Modules["demand"]; ok && len(m.Weights) > 0 {
		demandWeights = m.Weights
	}

	tourism, err := scoring.NewWeighted(models.ModuleTourism, tourismWeights)
	if err != nil {
		return usecase.Models{}, err
	}
	demand, err := scoring.NewWeighted(models.ModuleDemand, demandWeights)
	if err != nil {
		return usecase.Models{}, err
	}

	baseline, err := scoring.LoadBaseline(cfg.Engine.Rent.ModelPath)
	if err != nil {
		return usecase.Models{}, err
	}

	return usecase.Models{
		CashFlow: scoring.NewCashFlow(scoring.CashFlowConfig{
			HalfLifeDays:   cfg.Engine.Cashflow.HalfLifeDays,
			MinHistoryDays: cfg.Engine.Cashflow.MinHistoryDays,
			FloorConf:      cfg.Engine.Cashflow.FloorConfidence,
		}),
		Tourism: tourism,
		Demand:  demand,
		Rent:    scoring.NewRent(baseline),
	}, nil
}

func defaultBands(m models.Module) []classify.Band {
	switch m {
	case models.ModuleCashflow:
		return []classify.Band{
			{Tier: models.TierStable},
			{Tier: models.TierWatch, Enter: 45, Exit: 50},
			{Tier: models.TierCritical, Enter: 15, Exit: 20},
		}
	case models.ModuleRent:
		return []classify.Band{
			{Tier: models.TierSettled},
			{Tier: models.TierElevated, Enter: 0.6, Exit: 0.55},
			{Tier: models.TierHikeLikely, Enter: 0.8, Exit: 0.75},
		}
	default:
		return []classify.Band{
			{Tier: models.TierLow},
			{Tier: models.TierModerate, Enter: 0.35, Exit: 0.30},
			{Tier: models.TierHigh, Enter: 0.60, Exit: 0.55},
			{Tier: models.TierVeryHigh, Enter: 0.85, Exit: 0.80},
		}
	}
}

// ProvideClassifiers builds one hysteresis classifier per module.
func ProvideClassifiers(cfg *config.Config, state domrepo.TierStateStore) (map[models.Module]*classify.Classifier, error) {
	out := make(map[models.Module]*classify.Classifier, 4)
	for _, m := range []models.Module{models.ModuleCashflow, models.ModuleTourism, models.ModuleRent, models.ModuleDemand} {
		c := classify.Config{
			Module:       m,
			Bands:        defaultBands(m),
			LowerIsWorse: m == models.ModuleCashflow,
		}
		if mc, ok := cfg.Engine.Modules[string(m)]; ok {
			if len(mc.Bands) > 0 {
				bands := make([]classify.Band, 0, len(mc.Bands)+1)
				// the base tier carries no thresholds, so configs may
				// list only the thresholded bands
				if ladder := models.TiersFor(m); models.Tier(mc.Bands[0].Tier) != ladder[0] {
					bands = append(bands, classify.Band{Tier: ladder[0]})
				}
				for _, b := range mc.Bands {
					bands = append(bands, classify.Band{Tier: models.Tier(b.Tier), Enter: b.Enter, Exit: b.Exit})
				}
				c.Bands = bands
			}
			c.LowerIsWorse = mc.LowerIsWorse
		}

		cls, err := classify.New(c, state)
		if err != nil {
			return nil, fmt.Errorf("classifier %s: %w", m, err)
		}
		out[m] = cls
	}
	return out, nil
}

// ProvideEngine creates the outlook engine use case.
func ProvideEngine(
	cfg *config.Config,
	store domrepo.SignalStore,
	agg *features.Aggregator,
	mdl usecase.Models,
	classifiers map[models.Module]*classify.Classifier,
	rec domrepo.Metrics,
	log *applogger.Logger,
) *usecase.OutlookEngine {
	decay := make(map[models.Module]float64, len(cfg.Engine.Modules))
	for name, mc := range cfg.Engine.Modules {
		if mc.HorizonDecay > 0 {
			decay[models.Module(name)] = mc.HorizonDecay
		}
	}

	return usecase.NewOutlookEngine(store, agg, mdl, classifiers, rec, log, usecase.Options{
		TopDrivers:     cfg.Engine.TopDrivers,
		HorizonDecay:   decay,
		CashflowWindow: cfg.Engine.Cashflow.HistoryWindow,
	})
}

// ProvideAggregateUseCase creates the all-modules fan-out.
func ProvideAggregateUseCase(engine *usecase.OutlookEngine) *usecase.OutlookAggregateUseCase {
	return usecase.NewOutlookAggregateUseCase(engine)
}

// ProvideIngestor creates the signal ingestion use case.
func ProvideIngestor(
	cfg *config.Config,
	store domrepo.SignalStore,
	pub domrepo.Publisher,
	rec domrepo.Metrics,
	log *applogger.Logger,
) *usecase.SignalIngestor {
	return usecase.NewSignalIngestor(store, pub, rec, log, usecase.IngestorConfig{
		MaxFutureLag:  cfg.Store.MaxFutureLag,
		RetentionDays: cfg.Store.RetentionDays,
	})
}

// ProvideBytesCache builds the response/provider cache. With Redis
// configured it layers a small memory cache over Redis; otherwise the
// in-process TTL cache serves alone.
func ProvideBytesCache(cfg *config.Config) (icache.BytesCache, error) {
	if cfg.Cache.Addr == "" {
		return icache.NewTTLCache(), nil
	}

	host, port, err := splitAddr(cfg.Cache.Addr)
	if err != nil {
		return nil, fmt.Errorf("cache.addr: %w", err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Password),
		pkgcache.WithRedisDB(cfg.Cache.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("response cache redis: %w", err)
	}
	return icache.NewServiceCache(pkgcache.NewLayeredCache(rc)), nil
}

// ProvideOutlookHandler creates the outlook HTTP handler.
func ProvideOutlookHandler(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.OutlookEngine,
	all *usecase.OutlookAggregateUseCase,
	mdl usecase.Models,
	bc icache.BytesCache,
) *api.OutlookHandler {
	opts := []api.OutlookHandlerOption{api.WithRateLimiter(ratelimit.New())}
	if cfg.Cache.Enabled {
		opts = append(opts, api.WithResponseCache(bc, cfg.Cache.TTL))
	}
	return api.NewOutlookHandler(log, engine, all, mdl.Rent, opts...)
}

// ProvideSignalsHandler creates the ingestion HTTP handler.
func ProvideSignalsHandler(log *applogger.Logger, ingestor *usecase.SignalIngestor) *api.SignalsHandler {
	return api.NewSignalsHandler(log, ingestor)
}

// ProvideRouter groups the HTTP handlers for route registration.
func ProvideRouter(outlook *api.OutlookHandler, signals *api.SignalsHandler) *api.Router {
	return api.NewRouter(outlook, signals)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
// Nil when the direct transport is in use.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Store.IngestTransport != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSignalsHandler registers the handler for the signals topic.
func ProvideKafkaSignalsHandler(cfg *config.Config, store domrepo.SignalStore, rec domrepo.Metrics) *usecase.KafkaSignalsHandler {
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.Topic, store, rec)
}

// ProvideCollector wires the foot traffic stream through the throttled
// ingest pipeline. Nil when the stream is disabled.
func ProvideCollector(cfg *config.Config, ingestor *usecase.SignalIngestor, rec domrepo.Metrics) *usecase.SignalCollector {
	if !cfg.CivicFeed.Enabled {
		return nil
	}
	stream := civicfeed.New(
		cfg.CivicFeed.APIKey,
		cfg.CivicFeed.WebSocketURL,
		cfg.CivicFeed.Locations,
		cfg.CivicFeed.ReconnectDelay,
		cfg.CivicFeed.PingInterval,
	)
	pipe := mid.NewIngestPipeline(ingestor, rec,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(1000),
	)
	return usecase.NewSignalCollector(stream, ingestor, rec, pipe)
}

// ProvideRefreshScheduler builds the periodic provider pull. Nil when
// refresh is disabled.
func ProvideRefreshScheduler(
	cfg *config.Config,
	ingestor *usecase.SignalIngestor,
	bc icache.BytesCache,
	log *applogger.Logger,
) *refresh.Scheduler {
	if !cfg.Providers.Refresh.Enabled {
		return nil
	}

	sources := []domrepo.SignalSource{
		providers.NewCachedSource(providers.NewWeatherSource(cfg.Providers.Weather.BaseURL, cfg.Providers.Weather.APIKey, cfg.Providers.Timeout), bc, cfg.Cache.TTL),
		providers.NewCachedSource(providers.NewEventsSource(cfg.Providers.Events.BaseURL, cfg.Providers.Timeout), bc, cfg.Cache.TTL),
		providers.NewCachedSource(providers.NewRentListingsSource(cfg.Providers.RentListings.BaseURL, cfg.Providers.Timeout), bc, cfg.Cache.TTL),
	}

	job := refresh.NewFetchJob(sources, ingestor, log)
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}

	opts := []refresh.SchedulerOption{
		refresh.WithLookbackDays(cfg.Providers.Refresh.LookbackDays),
		refresh.WithLookaheadDays(cfg.Providers.Refresh.LookaheadDays),
	}
	if cfg.Cache.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		rq := queue.NewRedisQueue(log,
			&queue.QueueConfig{Workers: cfg.Providers.Refresh.Workers},
			rdb, queue.ModeProducerConsumer,
			queue.WithKeyPrefix("harbor:refresh"))
		rq.RegisterJob(job)
		if err := rq.Start(); err != nil {
			log.Warn("refresh queue unavailable, running inline", applogger.Error(err))
		} else {
			opts = append(opts, refresh.WithRedisQueue(rq))
		}
	}

	return refresh.NewScheduler(job, names, cfg.Providers.Refresh.Locations, cfg.Providers.Refresh.Interval, log, opts...)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	router *api.Router,
	collector *usecase.SignalCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSignalsHandler,
	scheduler *refresh.Scheduler,
	store domrepo.SignalStore,
	pub domrepo.Publisher,
) *server.App {
	return server.New(cfg, log, router, collector, consumer, kh, scheduler, store, pub)
}
