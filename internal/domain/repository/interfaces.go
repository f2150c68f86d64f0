package repository

import (
	"context"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
)

// SignalStore is the durable store for observed signals. Writes with the
// same identity (source, metric, day) replace the previous value.
type SignalStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Put(ctx context.Context, s *models.Signal) error
	PutBatch(ctx context.Context, signals []*models.Signal) error
	Range(ctx context.Context, metric string, from, to time.Time) ([]*models.Signal, error)
	Latest(ctx context.Context, metric string) (*models.Signal, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// TierStateStore holds the last classified tier per (module, location).
// Update runs fn under a per-key writer lock so concurrent refreshes of
// the same key cannot interleave read-modify-write.
type TierStateStore interface {
	Get(ctx context.Context, module models.Module, location string) (models.Tier, bool, error)
	Update(ctx context.Context, module models.Module, location string, fn func(prev models.Tier, ok bool) (models.Tier, error)) error
}

// SignalSource pulls signals from an upstream provider for a location
// and day window.
type SignalSource interface {
	Name() string
	Fetch(ctx context.Context, location string, from, to time.Time) ([]*models.Signal, error)
}

// SignalStream is a push-based upstream feed of signals.
type SignalStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Signal, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher hands accepted signals to a transport for asynchronous storage.
type Publisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	PublishBatch(ctx context.Context, signals []*models.Signal) error
	Close() error
}

type Metrics interface {
	RecordSignalStored(backend, source string)
	RecordSignalRejected(kind string)
	RecordError(kind string)
	RecordTier(module, location, tier string)
	RecordLatency(op string, seconds float64)
}
