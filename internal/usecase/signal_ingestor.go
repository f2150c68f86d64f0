package usecase

import (
	"context"
	"math"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	applogger "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
)

// IngestorConfig bounds what the ingestor accepts.
type IngestorConfig struct {
	MaxFutureLag  time.Duration
	RetentionDays int
	Now           func() time.Time
}

func (c IngestorConfig) withDefaults() IngestorConfig {
	if c.MaxFutureLag <= 0 {
		c.MaxFutureLag = 48 * time.Hour
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 730
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// SignalIngestor validates and commits signal batches. With a publisher
// configured, accepted records go to the transport and a consumer writes
// them to the store; otherwise they are stored directly. A rejected
// record never aborts the rest of its batch.
type SignalIngestor struct {
	store     domrepo.SignalStore
	publisher domrepo.Publisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	cfg       IngestorConfig
}

func NewSignalIngestor(store domrepo.SignalStore, publisher domrepo.Publisher, metrics domrepo.Metrics, log *applogger.Logger, cfg IngestorConfig) *SignalIngestor {
	return &SignalIngestor{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		cfg:       cfg.withDefaults(),
	}
}

// IngestBatch validates each record against the source's declared range
// and the time window, then commits the accepted ones.
func (si *SignalIngestor) IngestBatch(ctx context.Context, location string, records []models.IngestRecord) (*models.BatchResult, error) {
	if location == "" {
		return nil, models.E(models.KindInvalidSignal, "location required")
	}

	res := &models.BatchResult{}
	accepted := make([]*models.Signal, 0, len(records))
	for i, rec := range records {
		sig, err := si.validate(location, rec)
		if err != nil {
			res.Rejected = append(res.Rejected, models.RejectedSignal{
				Index:   i,
				Kind:    models.KindOf(err),
				Message: err.Error(),
			})
			if si.metrics != nil {
				si.metrics.RecordSignalRejected(string(models.KindOf(err)))
			}
			continue
		}
		accepted = append(accepted, sig)
	}

	if len(accepted) > 0 {
		if err := si.commit(ctx, accepted); err != nil {
			return nil, err
		}
	}
	res.Accepted = len(accepted)

	if si.log != nil {
		si.log.Info("signal batch ingested",
			applogger.String("location", location),
			applogger.Int("accepted", res.Accepted),
			applogger.Int("rejected", len(res.Rejected)))
	}
	return res, nil
}

// Ingest validates and commits a single signal, used by streaming
// collectors that already carry location-scoped metrics.
func (si *SignalIngestor) Ingest(ctx context.Context, s *models.Signal) error {
	if err := si.validateSignal(s); err != nil {
		if si.metrics != nil {
			si.metrics.RecordSignalRejected(string(models.KindOf(err)))
		}
		return err
	}
	return si.commit(ctx, []*models.Signal{s})
}

func (si *SignalIngestor) commit(ctx context.Context, signals []*models.Signal) error {
	if si.publisher != nil {
		if err := si.publisher.PublishBatch(ctx, signals); err != nil {
			return models.Wrap(models.KindStoreUnavailable, err, "publish %d signals", len(signals))
		}
		si.recordStored("kafka", signals)
		return nil
	}
	if err := si.store.PutBatch(ctx, signals); err != nil {
		return models.Wrap(models.KindStoreUnavailable, err, "store %d signals", len(signals))
	}
	si.recordStored("store", signals)
	return nil
}

func (si *SignalIngestor) recordStored(backend string, signals []*models.Signal) {
	if si.metrics == nil {
		return
	}
	for _, s := range signals {
		si.metrics.RecordSignalStored(backend, string(s.Source))
	}
}

func (si *SignalIngestor) validate(location string, rec models.IngestRecord) (*models.Signal, error) {
	day, err := time.ParseInLocation("2006-01-02", rec.Date, time.UTC)
	if err != nil {
		return nil, models.E(models.KindInvalidSignal, "bad date %q", rec.Date)
	}
	s := &models.Signal{
		Source:    models.Source(rec.Source),
		Metric:    models.MetricKey(location, rec.Metric),
		Timestamp: day,
		Value:     rec.Value,
		Unit:      rec.Unit,
	}
	if rec.Metric == "" {
		return nil, models.E(models.KindInvalidSignal, "empty metric")
	}
	if err := si.validateSignal(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (si *SignalIngestor) validateSignal(s *models.Signal) error {
	if !models.IsValidSource(s.Source) {
		return models.E(models.KindInvalidSignal, "unknown source %q", s.Source)
	}
	if s.Metric == "" {
		return models.E(models.KindInvalidSignal, "empty metric")
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return models.E(models.KindInvalidSignal, "non-finite value for %s", s.Metric)
	}
	min, max := models.SourceRange(s.Source)
	if s.Value < min || s.Value > max {
		return models.E(models.KindInvalidSignal, "value %v outside [%v, %v] for source %s", s.Value, min, max, s.Source)
	}
	now := si.cfg.Now()
	if s.Timestamp.After(now.Add(si.cfg.MaxFutureLag)) {
		return models.E(models.KindInvalidSignal, "timestamp %s too far in the future", s.Timestamp.Format("2006-01-02"))
	}
	if s.Timestamp.Before(domrepo.DayOf(now).AddDate(0, 0, -si.cfg.RetentionDays)) {
		return models.E(models.KindInvalidSignal, "timestamp %s before retention horizon", s.Timestamp.Format("2006-01-02"))
	}
	return nil
}
