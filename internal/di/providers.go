package di

import (
	"context"
	"fmt"
	"time"

	"StockPredictor/internal/domain/repository"
	"StockPredictor/internal/handler/api"
	mid "StockPredictor/internal/middleware"
	internalrepo "StockPredictor/internal/repository"
	"StockPredictor/internal/service/cache"
	"StockPredictor/internal/service/ratelimit"
	"StockPredictor/internal/service/yahoo"
	"StockPredictor/internal/services/features"
	"StockPredictor/internal/services/model"
	"StockPredictor/internal/usecase"
	pkgch "StockPredictor/pkg/clickhouse"
	"StockPredictor/pkg/config"
	xhttp "StockPredictor/pkg/http"
	pkgkafka "StockPredictor/pkg/kafka"
	applogger "StockPredictor/pkg/logger"
	"StockPredictor/pkg/metrics"
	"StockPredictor/pkg/server"

	kafkago "github.com/segmentio/kafka-go"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when nothing publishes.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.NeedsKafka() {
		return nil, nil
	}
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

// ProvideLogger creates the application logger and attaches the Kafka log collector when configured.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.CollectTopic != "" && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.FlushEvery,
			CountThreshold: cfg.Logging.FlushCount,
			Topic:          cfg.Logging.CollectTopic,
			Publisher:      producer,
		})
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the byte cache shared by the series and name decorators.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.BytesCache, error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewTTLCache(), nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("addr", cfg.Cache.Redis.Addr))
	return rc, nil
}

// ProvideChartClient creates the Yahoo chart client.
func ProvideChartClient(cfg *config.Config, l *applogger.Logger) *yahoo.Client {
	return yahoo.New(
		yahoo.WithBaseURL(cfg.Upstream.BaseURL),
		yahoo.WithTimeout(cfg.Upstream.Timeout),
		yahoo.WithUserAgent(cfg.Upstream.UserAgent),
		yahoo.WithLogger(l),
	)
}

// ProvideCachedMarketData wraps the chart client with caching and fetch coalescing.
func ProvideCachedMarketData(cfg *config.Config, chart *yahoo.Client, c cache.BytesCache, m repository.Metrics, l *applogger.Logger) *usecase.CachingMarketData {
	return usecase.NewCachingMarketData(chart, c, cfg.Cache.SeriesTTL, m, l)
}

// ProvideMarketData is the fetcher behind the endpoints. Requested series are archived
// when the pipeline exists; references fetched by the feature pipeline are not.
func ProvideMarketData(cached *usecase.CachingMarketData, pipe *mid.ArchivePipeline) repository.MarketData {
	if pipe == nil {
		return cached
	}
	return usecase.NewArchivingMarketData(cached, pipe)
}

// ProvideNameResolver creates the cached display name resolver.
func ProvideNameResolver(cfg *config.Config, chart *yahoo.Client, c cache.BytesCache, l *applogger.Logger) repository.NameResolver {
	var quoteFn yahoo.QuoteFunc
	if cfg.Upstream.QuoteLookup {
		quoteFn = yahoo.DefaultQuoteFunc()
	}
	return usecase.NewCachingNameResolver(yahoo.NewNameResolver(chart, quoteFn, l), c, cfg.Cache.NameTTL, l)
}

// ProvideFeaturePipeline creates the feature pipeline over the non-archiving fetcher.
func ProvideFeaturePipeline(cfg *config.Config, cached *usecase.CachingMarketData, l *applogger.Logger) *features.Pipeline {
	return features.NewPipeline(cached,
		features.WithReferenceSymbols(cfg.Upstream.IndexSymbol, cfg.Upstream.RateSymbol),
		features.WithReferenceYears(cfg.Upstream.ReferenceYears),
		features.WithLogger(l),
	)
}

// ProvideModelHolder creates the process-wide scorer holder.
func ProvideModelHolder(cfg *config.Config, l *applogger.Logger) *model.Holder {
	return model.NewHolder(model.Options{
		ArtifactPath: cfg.Model.ArtifactPath,
		ServiceURL:   cfg.Model.ServiceURL,
		Timeout:      cfg.Model.Timeout,
	}, features.FeatureColumns, l)
}

// ProvideSeriesUseCase creates the chart series use case.
func ProvideSeriesUseCase(data repository.MarketData, names repository.NameResolver, l *applogger.Logger) *usecase.SeriesUseCase {
	return usecase.NewSeriesUseCase(data, names, l)
}

// ProvidePredictionUseCase creates the prediction use case.
func ProvidePredictionUseCase(
	data repository.MarketData,
	pipeline *features.Pipeline,
	holder *model.Holder,
	names repository.NameResolver,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PredictionUseCase {
	return usecase.NewPredictionUseCase(data, pipeline, holder, names, m, l)
}

// ProvideRateLimiter creates the per-client limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideMarketHandler creates the HTTP handler.
func ProvideMarketHandler(
	cfg *config.Config,
	series *usecase.SeriesUseCase,
	predict *usecase.PredictionUseCase,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
) *api.MarketEchoHandler {
	return api.NewMarketEchoHandler(l, series, predict, limiter, cfg.Cache.SeriesTTL)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.MarketEchoHandler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h, l,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORS(cfg.Server.CORS),
	)
}

// ProvideClickHouseClient creates a ClickHouse client and the bars table, or nil when unused.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.NeedsClickHouse() {
		return nil, nil
	}
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
	if err := client.InitSchema(ctx, internalrepo.BarSchema(cfg.ClickHouse.Database, cfg.Archive.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func barStorage(cfg *config.Config, ch *pkgch.Client) repository.BarStorage {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseBarStorage(ch.DB(), cfg.ClickHouse.Database+"."+cfg.Archive.Table)
}

// ProvideArchiveProcessor routes archived series to the configured backend, or nil when disabled.
func ProvideArchiveProcessor(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	m repository.Metrics,
) *usecase.ArchiveProcessor {
	if !cfg.Archive.Enabled {
		return nil
	}
	var pub repository.BarPublisher
	if cfg.Archive.Backend == usecase.BackendKafka && producer != nil {
		pub = internalrepo.NewKafkaBarPublisher(producer, cfg.Archive.Topic)
	}
	var store repository.BarStorage
	if cfg.Archive.Backend == usecase.BackendClickHouse {
		store = barStorage(cfg, ch)
	}
	return usecase.NewArchiveProcessor(pub, store, m, cfg.Archive.Backend)
}

// ProvideArchivePipeline creates the background archive pipeline, or nil when disabled.
func ProvideArchivePipeline(
	cfg *config.Config,
	proc *usecase.ArchiveProcessor,
	m repository.Metrics,
	l *applogger.Logger,
) *mid.ArchivePipeline {
	if proc == nil {
		return nil
	}
	return mid.NewArchivePipeline(proc, m,
		mid.WithBufferSize(cfg.Archive.BufferSize),
		mid.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates the consumer landing archived bars in ClickHouse, or nil when unused.
func ProvideKafkaConsumer(
	cfg *config.Config,
	ch *pkgch.Client,
	m repository.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Archive.Enabled || cfg.Archive.Backend != usecase.BackendKafka || !cfg.Archive.Consume || ch == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerStartOffset(cfg.Kafka.Consumer.StartOffset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	hook := pkgkafka.TraceHook()
	hook.Err = func(_ context.Context, topic string, km kafkago.Message, _ []byte, err error) {
		m.RecordError("consumer_attempt")
		l.Debug("kafka handler attempt failed",
			applogger.String("topic", topic),
			applogger.Int("partition", km.Partition),
			applogger.Int64("offset", km.Offset),
			applogger.Error(err),
		)
	}
	consumer.WithConsumerHook(hook)
	consumer.RegisterHandler(usecase.NewKafkaBarsHandler(cfg.Archive.Topic, barStorage(cfg, ch), m))
	return consumer, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	pipe *mid.ArchivePipeline,
	proc *usecase.ArchiveProcessor,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, httpServer,
		server.WithLimiter(limiter),
		server.WithArchive(pipe, proc),
		server.WithConsumer(consumer),
		server.WithProducer(producer),
		server.WithClickHouse(ch),
	)
}
