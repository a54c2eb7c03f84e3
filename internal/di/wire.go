//go:build wireinject
// +build wireinject

package di

import (
	"StockPredictor/pkg/config"
	"StockPredictor/pkg/server"

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
		ProvideCache,
		ProvideClickHouseClient,

		// Market data
		ProvideChartClient,
		ProvideCachedMarketData,
		ProvideMarketData,
		ProvideNameResolver,

		// Archive
		ProvideArchiveProcessor,
		ProvideArchivePipeline,
		ProvideKafkaConsumer,

		// Scoring
		ProvideFeaturePipeline,
		ProvideModelHolder,

		// Use cases
		ProvideSeriesUseCase,
		ProvidePredictionUseCase,

		// HTTP
		ProvideRateLimiter,
		ProvideMarketHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
