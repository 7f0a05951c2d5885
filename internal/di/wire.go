//go:build wireinject
// +build wireinject

package di

import (
	"PriceCast/pkg/config"
	"PriceCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideYahooClient,
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,

		// Repositories
		ProvideSnapshotStore,
		ProvidePriceSource,
		ProvideInfoSource,
		ProvideEventPublisher,

		// Domain services
		ProvideIndicatorEngine,
		ProvideForecaster,
		ProvideEvaluator,

		// Use cases
		ProvideAnalyzeUseCase,
		ProvideBatchAnalyzeUseCase,
		ProvideEvaluateUseCase,
		ProvideSnapshotRefresher,

		// Transport and application server
		ProvideHandler,
		ProvideRateLimiter,
		ProvideApp,
	)
	return &server.App{}, nil
}
