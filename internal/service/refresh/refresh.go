package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/usecase"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/queue"
)

const jobType = "provider_refresh"

// Payload identifies one provider pull. Days are ISO dates so the
// payload survives a JSON round trip through the queue.
type Payload struct {
	Provider string `json:"provider"`
	Location string `json:"location"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// FetchJob pulls a day window from one provider and feeds the results
// through the ingestion path, so queued refreshes get the same
// validation as API submissions.
type FetchJob struct {
	sources  map[string]domrepo.SignalSource
	ingestor *usecase.SignalIngestor
	log      *logger.Logger
}

func NewFetchJob(sources []domrepo.SignalSource, ingestor *usecase.SignalIngestor, log *logger.Logger) *FetchJob {
	byName := make(map[string]domrepo.SignalSource, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}
	return &FetchJob{sources: byName, ingestor: ingestor, log: log}
}

func (j *FetchJob) Name() string { return "provider-refresh" }
func (j *FetchJob) Type() string { return jobType }

func (j *FetchJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[Payload](payload)
	if err != nil {
		return fmt.Errorf("parse refresh payload: %w", err)
	}

	src, ok := j.sources[p.Provider]
	if !ok {
		return fmt.Errorf("unknown provider %q", p.Provider)
	}

	from, err := time.Parse("2006-01-02", p.From)
	if err != nil {
		return fmt.Errorf("parse from: %w", err)
	}
	to, err := time.Parse("2006-01-02", p.To)
	if err != nil {
		return fmt.Errorf("parse to: %w", err)
	}

	signals, err := src.Fetch(ctx, p.Location, from, to)
	if err != nil {
		return fmt.Errorf("fetch %s for %s: %w", p.Provider, p.Location, err)
	}

	accepted := 0
	for _, s := range signals {
		if err := j.ingestor.Ingest(ctx, s); err != nil {
			j.log.Warn("refresh signal dropped",
				logger.String("provider", p.Provider),
				logger.String("metric", s.Metric),
				logger.Error(err))
			continue
		}
		accepted++
	}

	j.log.Info("provider refresh done",
		logger.String("provider", p.Provider),
		logger.String("location", p.Location),
		logger.Int("fetched", len(signals)),
		logger.Int("accepted", accepted))
	return nil
}

var _ queue.Job = (*FetchJob)(nil)

// Scheduler periodically enqueues one refresh per provider and location.
// With a queue attached the pulls fan out to queue workers; without one
// they run inline, which keeps single-binary deployments working.
type Scheduler struct {
	job       *FetchJob
	publisher queue.QueueService
	redisQ    *queue.RedisQueue
	providers []string
	locations []string
	interval  time.Duration
	lookback  int
	lookahead int
	log       *logger.Logger
	now       func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

type SchedulerOption func(*Scheduler)

// WithQueue routes refresh work through a job queue instead of inline.
func WithQueue(q queue.QueueService) SchedulerOption {
	return func(s *Scheduler) { s.publisher = q }
}

// WithRedisQueue attaches a Redis queue whose lifecycle the scheduler
// owns: jobs publish to it and Stop shuts it down.
func WithRedisQueue(rq *queue.RedisQueue) SchedulerOption {
	return func(s *Scheduler) {
		s.publisher = rq
		s.redisQ = rq
	}
}

// WithLookbackDays widens the pull window.
func WithLookbackDays(days int) SchedulerOption {
	return func(s *Scheduler) {
		if days > 0 {
			s.lookback = days
		}
	}
}

// WithLookaheadDays extends the pull window past today so forecast
// providers (weather, events) populate upcoming days. Ingestion caps
// how far ahead a signal may land, so the window should stay within
// the configured future lag.
func WithLookaheadDays(days int) SchedulerOption {
	return func(s *Scheduler) {
		if days >= 0 {
			s.lookahead = days
		}
	}
}

func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(job *FetchJob, providers, locations []string, interval time.Duration, log *logger.Logger, opts ...SchedulerOption) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	s := &Scheduler{
		job:       job,
		providers: providers,
		locations: locations,
		interval:  interval,
		lookback:  7,
		lookahead: 2,
		log:       log,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the refresh loop. The first round runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		s.runRound(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.runRound(ctx)
			}
		}
	}()
}

// Stop halts the loop, waits for the in-flight round, and shuts down
// the attached queue if any.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done

	if s.redisQ != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.redisQ.Stop(ctx); err != nil {
			s.log.Warn("refresh queue stop", logger.Error(err))
		}
	}
}

func (s *Scheduler) runRound(ctx context.Context) {
	now := s.now().UTC()
	from := now.AddDate(0, 0, -s.lookback).Format("2006-01-02")
	to := now.AddDate(0, 0, s.lookahead).Format("2006-01-02")

	for _, provider := range s.providers {
		for _, location := range s.locations {
			p := Payload{Provider: provider, Location: location, From: from, To: to}
			if err := s.dispatch(ctx, p); err != nil {
				s.log.Error("refresh dispatch failed",
					logger.String("provider", provider),
					logger.String("location", location),
					logger.Error(err))
			}
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, p Payload) error {
	if s.publisher != nil {
		return s.publisher.PublishMessage(ctx, jobType, p)
	}
	return s.job.Handle(ctx, p)
}
