package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	pkgkafka "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/kafka"
)

// KafkaSignalsHandler consumes published signal records and writes them
// to the store. The transport keys messages by metric stream, so each
// stream's writes arrive in order and last-write-wins holds end to end.
type KafkaSignalsHandler struct {
	topic   string
	store   domrepo.SignalStore
	metrics domrepo.Metrics
}

func NewKafkaSignalsHandler(topic string, store domrepo.SignalStore, metrics domrepo.Metrics) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

// incoming message schema: {source, metric, day, value, unit}
func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Source string  `json:"source"`
		Metric string  `json:"metric"`
		Day    string  `json:"day"`
		Value  float64 `json:"value"`
		Unit   string  `json:"unit"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.recordError("consumer_unmarshal")
		return err
	}
	day, err := time.ParseInLocation("2006-01-02", m.Day, time.UTC)
	if err != nil {
		h.recordError("consumer_bad_day")
		return err
	}

	start := time.Now()
	err = h.store.Put(ctx, &models.Signal{
		Source:    models.Source(m.Source),
		Metric:    m.Metric,
		Timestamp: day,
		Value:     m.Value,
		Unit:      m.Unit,
	})
	if h.metrics != nil {
		h.metrics.RecordLatency("store_insert_seconds", time.Since(start).Seconds())
	}
	if err != nil {
		h.recordError("consumer_store")
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordSignalStored("clickhouse", m.Source)
	}
	return nil
}

func (h *KafkaSignalsHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
