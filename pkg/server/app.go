package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/refresh"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/usecase"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/config"
	xhttp "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/http"
	pkgkafka "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/kafka"
	applogger "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP API, the optional
// stream collector, the Kafka consumer behind the async transport, and
// the provider refresh loop.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	collector  *usecase.SignalCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	scheduler  *refresh.Scheduler
	store      domrepo.SignalStore
	pub        domrepo.Publisher
	httpServer *xhttp.Server
}

// New creates an App with all dependencies. Optional collaborators may
// be nil; Run skips them.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.SignalCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	scheduler *refresh.Scheduler,
	store domrepo.SignalStore,
	pub domrepo.Publisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		scheduler: scheduler,
		store:     store,
		pub:       pub,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("collector error", applogger.Error(err))
			}
		}()
		a.log.Info("stream collector started", applogger.Strings("locations", a.cfg.CivicFeed.Locations))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.scheduler != nil {
		a.scheduler.Start(ctx)
		a.log.Info("provider refresh started",
			applogger.Strings("locations", a.cfg.Providers.Refresh.Locations),
			applogger.Duration("interval", a.cfg.Providers.Refresh.Interval))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops everything in reverse dependency order: intakes first,
// then the HTTP surface, then the backends.
func (a *App) shutdown(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
