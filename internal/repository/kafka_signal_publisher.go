package repository

import (
	"context"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	pkgkafka "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/kafka"
)

// KafkaSignalPublisher implements Publisher for Kafka. Messages are
// keyed by the metric stream so every stream lands on one partition and
// its writes stay ordered.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Metric), signalPayload(s))
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(s.Metric),
			Value: signalPayload(s),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func signalPayload(s *models.Signal) map[string]interface{} {
	return map[string]interface{}{
		"source": string(s.Source),
		"metric": s.Metric,
		"day":    s.Timestamp.UTC().Format("2006-01-02"),
		"value":  s.Value,
		"unit":   s.Unit,
	}
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
