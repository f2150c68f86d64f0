package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// Sink is the minimal downstream the pipeline needs.
type Sink interface {
	Ingest(ctx context.Context, s *models.Signal) error
}

// IngestPipeline sits between a streaming source and the ingestor. It
// validates shape, throttles per metric stream, and buffers when the
// downstream is unavailable so a store hiccup does not drop the feed.
type IngestPipeline struct {
	sink      Sink
	metrics   domrepo.Metrics
	maxRPS    int
	bufSize   int
	bufCh     chan *models.Signal
	stopCh    chan struct{}
	started   bool
	mu        sync.Mutex
	lastSeen  map[string]time.Time // per-metric last accepted time
	transform func(*models.Signal) *models.Signal
}

type PipelineOption func(*IngestPipeline)

// WithMaxRPS sets the max signals per second per metric stream.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a hook to reshape signals before ingestion.
func WithTransform(fn func(*models.Signal) *models.Signal) PipelineOption {
	return func(p *IngestPipeline) { p.transform = fn }
}

func NewIngestPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		sink:     sink,
		metrics:  metrics,
		maxRPS:   10,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Signal, p.bufSize)
	return p
}

// Start launches background flushing of buffered signals.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.sink.Ingest(ctx, s); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.recordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- s:
					default:
						p.recordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a signal, buffering on
// downstream errors. Throttled signals are dropped silently; day-granular
// streams lose nothing meaningful at one update per second.
func (p *IngestPipeline) Process(ctx context.Context, s *models.Signal) error {
	start := time.Now()
	if err := checkShape(s); err != nil {
		p.recordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		s = p.transform(s)
		if err := checkShape(s); err != nil {
			p.recordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(s.Metric, start) {
		p.recordError("pipeline_throttle")
		return nil
	}

	if err := p.sink.Ingest(ctx, s); err != nil {
		if models.IsKind(err, models.KindInvalidSignal) {
			// Bad data does not belong in the retry buffer.
			p.recordError("pipeline_reject")
			return err
		}
		p.recordError("pipeline_process")
		select {
		case p.bufCh <- s:
		default:
			p.recordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	}
	return nil
}

func (p *IngestPipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}

func checkShape(s *models.Signal) error {
	if s == nil {
		return fmt.Errorf("signal nil")
	}
	if s.Metric == "" {
		return fmt.Errorf("metric empty")
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("timestamp missing")
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("non-finite value")
	}
	return nil
}

func (p *IngestPipeline) allow(metric string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[metric]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[metric] = now
		return true
	}
	return false
}
