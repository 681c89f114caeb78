//go:build wireinject
// +build wireinject

package di

import (
	"TrendForge/pkg/config"
	"TrendForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,

		// Repositories
		ProvideCandleStorage,
		ProvideCandleStore,
		ProvideCandlePublisher,
		ProvideSamplePublisher,
		ProvideMarketStream,

		// Feature engine
		ProvideExtractor,

		// Use cases
		ProvideCandleProcessor,
		ProvideCandleCollector,
		ProvideKafkaCandlesHandler,
		ProvideScoringUseCase,
		ProvideDatasetUseCase,
		ProvideCandlesUseCase,
		ProvideTrainer,
		ProvideQueue,

		// HTTP
		ProvideEchoHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
