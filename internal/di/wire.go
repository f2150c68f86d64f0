//go:build wireinject
// +build wireinject

package di

import (
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/config"
	"github.com/varunnair1234/HarborProject-CruzHacks26/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Storage and transport
		ProvideSignalStore,
		ProvidePublisher,
		ProvideTierState,

		// Engine components
		ProvideAggregator,
		ProvideModels,
		ProvideClassifiers,

		// Use cases
		ProvideEngine,
		ProvideAggregateUseCase,
		ProvideIngestor,

		// Intakes
		ProvideKafkaConsumer,
		ProvideKafkaSignalsHandler,
		ProvideCollector,
		ProvideRefreshScheduler,

		// HTTP surface
		ProvideBytesCache,
		ProvideOutlookHandler,
		ProvideSignalsHandler,
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
