//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinCast/pkg/config"
	"FinCast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories and collaborators
		ProvidePriceStore,
		ProvidePriceSource,
		ProvideSentimentAnalyzer,
		ProvideNarrativeGenerator,
		ProvideReportPublisher,
		ProvideHub,

		// Use cases and drivers
		ProvidePredictionUseCase,
		ProvideKafkaConsumer,
		ProvideScheduler,

		// HTTP
		ProvideRateLimiter,
		ProvidePredictionHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
