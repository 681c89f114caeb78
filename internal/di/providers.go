package di

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"TrendForge/internal/domain/repository"
	domsvc "TrendForge/internal/domain/service"
	"TrendForge/internal/handler/api"
	mid "TrendForge/internal/middleware"
	internalrepo "TrendForge/internal/repository"
	"TrendForge/internal/service/stream"
	"TrendForge/internal/services/features"
	"TrendForge/internal/services/trainer"
	"TrendForge/internal/usecase"
	pkgcache "TrendForge/pkg/cache"
	pkgch "TrendForge/pkg/clickhouse"
	"TrendForge/pkg/config"
	pkgkafka "TrendForge/pkg/kafka"
	applogger "TrendForge/pkg/logger"
	"TrendForge/pkg/metrics"
	pkgqueue "TrendForge/pkg/queue"
	"TrendForge/pkg/server"

	"github.com/rs/zerolog"
)

// ProvideLogger creates the application logger.
func ProvideLogger() (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the candle
// schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, pkgch.CandleSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideExtractor builds the feature extractor from config, falling back to
// pinned defaults for every unset field.
func ProvideExtractor(cfg *config.Config) (*features.Extractor, error) {
	fc := features.DefaultConfig()
	if len(cfg.Features.SMAPeriods) > 0 {
		fc.SMAPeriods = cfg.Features.SMAPeriods
	}
	if len(cfg.Features.EMAPeriods) > 0 {
		fc.EMAPeriods = cfg.Features.EMAPeriods
	}
	if cfg.Features.RSIPeriod > 0 {
		fc.RSIPeriod = cfg.Features.RSIPeriod
	}
	if cfg.Features.MACDFast > 0 {
		fc.MACDFast = cfg.Features.MACDFast
	}
	if cfg.Features.MACDSlow > 0 {
		fc.MACDSlow = cfg.Features.MACDSlow
	}
	if cfg.Features.MACDSignal > 0 {
		fc.MACDSignal = cfg.Features.MACDSignal
	}
	if cfg.Features.BBPeriod > 0 {
		fc.BBPeriod = cfg.Features.BBPeriod
	}
	if cfg.Features.BBStdDev > 0 {
		fc.BBStdDev = cfg.Features.BBStdDev
	}
	if cfg.Features.ATRPeriod > 0 {
		fc.ATRPeriod = cfg.Features.ATRPeriod
	}
	if len(cfg.Features.ReturnPeriods) > 0 {
		fc.ReturnPeriods = cfg.Features.ReturnPeriods
	}
	return features.NewExtractor(fc)
}

// ProvideCandleStorage creates ClickHouse candle storage for the ingest path.
func ProvideCandleStorage(chClient *pkgch.Client, cfg *config.Config) repository.CandleStorage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+"."+ingestTable(cfg))
}

func ingestTable(cfg *config.Config) string {
	if cfg.Stream.Interval == "1s" {
		return "candles_1s"
	}
	return "candles_1m"
}

// ProvideCandleStore creates the read-side candle store.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) repository.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideCandlePublisher creates the Kafka candle publisher.
func ProvideCandlePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.CandlePublisher {
	return internalrepo.NewKafkaCandlePublisher(producer, cfg.Kafka.Topic)
}

// ProvideSamplePublisher creates the Kafka publisher for labeled samples.
func ProvideSamplePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SamplePublisher {
	topic := cfg.Kafka.SamplesTopic
	if topic == "" {
		topic = "trendforge.samples"
	}
	return internalrepo.NewKafkaSamplePublisher(producer, topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaCandlesHandler registers the handler for the candle topic.
func ProvideKafkaCandlesHandler(store repository.CandleStorage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideMarketStream creates the exchange kline WebSocket stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	interval := cfg.Stream.Interval
	if interval == "" {
		interval = "1m"
	}
	return stream.New(
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		interval,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideCandleProcessor creates the candle processor use case.
func ProvideCandleProcessor(
	pub repository.CandlePublisher,
	store repository.CandleStorage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.CandleProcessor {
	return usecase.NewCandleProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideCandleCollector creates the candle collector use case.
func ProvideCandleCollector(
	stream repository.MarketStream,
	processor *usecase.CandleProcessor,
	metrics repository.Metrics,
) *usecase.CandleCollector {
	// Pipeline between WebSocket and backend keeps buckets monotonic and
	// buffers when downstream is down
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithBufferSize(2000),
	)
	return usecase.NewCandleCollector(stream, processor, metrics, pipe)
}

// ProvideRedisCache creates the Redis cache client, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("cache redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("cache redis port: %w", err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		pkgcache.WithRedisPrefix("trendforge"),
	)
}

// ProvideCacheService builds the scoring cache: layered L1/L2 when Redis is
// configured, memory-only otherwise.
func ProvideCacheService(redisCache *pkgcache.RedisCache) pkgcache.Service {
	if redisCache == nil {
		return pkgcache.NewMemoryCache()
	}
	return pkgcache.NewLayeredCache(redisCache)
}

// ProvideScoringUseCase creates the live-scoring use case.
func ProvideScoringUseCase(
	store repository.CandleStore,
	extractor *features.Extractor,
	metrics repository.Metrics,
	cache pkgcache.Service,
	cfg *config.Config,
) *usecase.ScoringUseCase {
	uc := usecase.NewScoringUseCase(store, extractor, metrics)
	uc.SetCache(cache, cfg.Cache.TTL)
	return uc
}

// ProvideDatasetUseCase creates the dataset build use case.
func ProvideDatasetUseCase(
	store repository.CandleStore,
	extractor *features.Extractor,
	pub repository.SamplePublisher,
	metrics repository.Metrics,
) *usecase.DatasetUseCase {
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return usecase.NewDatasetUseCase(store, extractor, pub, metrics, zl)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideTrainer creates the training-service client when configured.
func ProvideTrainer(cfg *config.Config) domsvc.Trainer {
	if cfg.Trainer.URL == "" {
		return nil
	}
	return trainer.NewHTTPTrainer(cfg)
}

// ProvideQueue creates the Redis-backed job queue for background dataset
// builds, or nil when disabled.
func ProvideQueue(
	cfg *config.Config,
	l *applogger.Logger,
	redisCache *pkgcache.RedisCache,
	dataset *usecase.DatasetUseCase,
	tr domsvc.Trainer,
) *pkgqueue.RedisQueue {
	if !cfg.Queue.Enabled || redisCache == nil {
		return nil
	}
	workers := cfg.Queue.Workers
	if workers <= 0 {
		workers = 2
	}
	opts := []pkgqueue.RedisQueueOption{}
	if cfg.Queue.Name != "" {
		opts = append(opts, pkgqueue.WithKeyPrefix(cfg.Queue.Name))
	}
	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, redisCache.Client(), pkgqueue.ModeProducerConsumer, opts...)
	q.RegisterJob(usecase.NewDatasetBuildJob(dataset, tr, l))
	return q
}

// ProvideEchoHandler creates the HTTP API handler.
func ProvideEchoHandler(
	l *applogger.Logger,
	scoring *usecase.ScoringUseCase,
	dataset *usecase.DatasetUseCase,
	candles *usecase.CandlesUseCase,
	tr domsvc.Trainer,
	q *pkgqueue.RedisQueue,
) *api.FeaturesEchoHandler {
	h := api.NewFeaturesEchoHandler(l, scoring, dataset, candles)
	if tr != nil {
		h.SetTrainer(tr)
		if p, ok := tr.(domsvc.Predictor); ok {
			h.SetPredictor(p)
		}
	}
	if q != nil {
		h.SetQueue(q)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	handler *api.FeaturesEchoHandler,
	q *pkgqueue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if q != nil {
		app.SetQueue(q)
	}
	if collector != nil {
		app.CandleProc = collector.Processor()
	}
	return app
}
