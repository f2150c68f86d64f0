package usecase

import (
	"context"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	mid "github.com/varunnair1234/HarborProject-CruzHacks26/internal/middleware"
)

// SignalCollector pulls signals off a streaming source and pushes them
// through the ingest pipeline (or straight into the ingestor when no
// pipeline is configured).
type SignalCollector struct {
	stream   domrepo.SignalStream
	ingestor *SignalIngestor
	metrics  domrepo.Metrics
	pipe     *mid.IngestPipeline
}

func NewSignalCollector(stream domrepo.SignalStream, ingestor *SignalIngestor, metrics domrepo.Metrics, pipe *mid.IngestPipeline) *SignalCollector {
	return &SignalCollector{stream: stream, ingestor: ingestor, metrics: metrics, pipe: pipe}
}

// IsConnected reports whether the upstream feed is live.
func (c *SignalCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *SignalCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	sigCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, sigCh, errCh)
	return nil
}

func (c *SignalCollector) consume(ctx context.Context, sigCh <-chan *models.Signal, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				if c.metrics != nil {
					c.metrics.RecordError("stream")
				}
				_ = c.stream.Reconnect(ctx)
			}
		case s := <-sigCh:
			if s == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, s)
			} else {
				_ = c.ingestor.Ingest(ctx, s)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *SignalCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
