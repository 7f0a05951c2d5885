package di

import (
	"context"
	"fmt"
	"time"

	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/handler/api"
	internalrepo "PriceCast/internal/repository"
	icache "PriceCast/internal/service/cache"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/service/yahoo"
	"PriceCast/internal/services/analytics"
	"PriceCast/internal/services/evaluation"
	"PriceCast/internal/services/forecast"
	"PriceCast/internal/services/indicators"
	"PriceCast/internal/usecase"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/metrics"
	"PriceCast/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger creates the application logger. With Kafka enabled, error entries are
// aggregated and shipped to the logs topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			Service:        "pricecast-" + cfg.Environment,
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic),
		})
	}
	return l, nil
}

// ProvideEventPublisher publishes analysis events to Kafka, or drops them when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideYahooClient creates the live price and metadata client.
func ProvideYahooClient(cfg *config.Config, l *applogger.Logger) *yahoo.Client {
	return yahoo.New(cfg, l)
}

// ProvideRedisCache connects to Redis when a cache backend needs it.
func ProvideRedisCache(cfg *config.Config) (*icache.RedisCache, error) {
	if cfg.Cache.Backend != "redis" && cfg.Cache.Backend != "layered" {
		return nil, nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "pricecast:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return rc, nil
}

// ProvideCache selects the series/metadata cache. It returns nil for backend "none".
func ProvideCache(cfg *config.Config, rc *icache.RedisCache) icache.BytesCache {
	switch cfg.Cache.Backend {
	case "redis":
		return rc
	case "layered":
		return icache.NewLayeredCache(rc, time.Minute)
	case "memory":
		return icache.NewTTLCache()
	default:
		return nil
	}
}

// ProvideClickHouseClient connects to ClickHouse when it backs the snapshot store.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Snapshots.Backend != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(4, 2),
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
	if err := client.InitSchema(ctx, internalrepo.SnapshotSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStore selects the snapshot backend. It returns nil for backend "none".
func ProvideSnapshotStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) domrepo.SnapshotStore {
	switch cfg.Snapshots.Backend {
	case "csv":
		s := internalrepo.NewCSVSnapshotStore(cfg.Snapshots.Dir)
		s.SetLogger(l.With("snapshots"))
		return s
	case "clickhouse":
		s := internalrepo.NewCHSnapshotStore(ch)
		s.SetLogger(l.With("snapshots"))
		return s
	default:
		return nil
	}
}

// ProvidePriceSource layers cache and snapshot fallback over the live client.
func ProvidePriceSource(cfg *config.Config, live *yahoo.Client, c icache.BytesCache, store domrepo.SnapshotStore, l *applogger.Logger) domrepo.PriceSource {
	return internalrepo.NewCachingPriceSource(live, c, store, cfg.Cache.SeriesTTL, l.With("prices"))
}

func ProvideInfoSource(cfg *config.Config, live *yahoo.Client, c icache.BytesCache, l *applogger.Logger) domrepo.InfoSource {
	return internalrepo.NewCachingInfoSource(live, c, cfg.Cache.InfoTTL, l.With("info"))
}

func ProvideIndicatorEngine(cfg *config.Config) *indicators.Engine {
	return indicators.New(indicators.WithMinObservations(cfg.Analysis.MinObservations))
}

// ProvideForecaster selects the forecast engine. The hosted engine falls back to the heuristic one unless disabled.
func ProvideForecaster(cfg *config.Config, l *applogger.Logger) domsvc.Forecaster {
	heuristic := forecast.NewHeuristic()
	if cfg.Forecast.Engine != analytics.EngineTimeGPT {
		return heuristic
	}
	hosted := analytics.NewTimeGPT(cfg)
	if !cfg.Forecast.Fallback {
		return hosted
	}
	return forecast.NewFallback(hosted, heuristic, l.With("forecast"))
}

func ProvideEvaluator(engine *indicators.Engine, fc domsvc.Forecaster, l *applogger.Logger) *evaluation.Evaluator {
	return evaluation.NewEvaluator(engine, fc, evaluation.WithLogger(l.With("evaluation")))
}

func ProvideAnalyzeUseCase(
	cfg *config.Config,
	prices domrepo.PriceSource,
	info domrepo.InfoSource,
	engine *indicators.Engine,
	fc domsvc.Forecaster,
	events domrepo.EventPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.AnalyzeUseCase {
	return usecase.NewAnalyzeUseCase(prices, info, engine, fc,
		usecase.WithWindow(cfg.Analysis.Window),
		usecase.WithHistoryTail(cfg.Analysis.HistoryTail),
		usecase.WithDefaultPeriod(domrepo.NormalizePeriod(cfg.Analysis.DefaultPeriod)),
		usecase.WithTimeout(cfg.Analysis.Timeout),
		usecase.WithEvents(events),
		usecase.WithMetrics(m),
		usecase.WithLogger(l.With("analyze")),
	)
}

func ProvideBatchAnalyzeUseCase(cfg *config.Config, analyze *usecase.AnalyzeUseCase) *usecase.BatchAnalyzeUseCase {
	return usecase.NewBatchAnalyzeUseCase(analyze, cfg.Analysis.BatchConcurrency)
}

func ProvideEvaluateUseCase(cfg *config.Config, prices domrepo.PriceSource, ev *evaluation.Evaluator, fc domsvc.Forecaster, m domrepo.Metrics) *usecase.EvaluateUseCase {
	return usecase.NewEvaluateUseCase(prices, ev, fc, m, cfg.Analysis.Timeout)
}

// ProvideSnapshotRefresher refreshes from the live client, bypassing the cache. Nil without a snapshot store.
func ProvideSnapshotRefresher(cfg *config.Config, live *yahoo.Client, store domrepo.SnapshotStore, l *applogger.Logger) *usecase.SnapshotRefresher {
	if store == nil {
		return nil
	}
	return usecase.NewSnapshotRefresher(live, store, cfg.Scheduler.Symbols,
		domrepo.Period(cfg.Scheduler.Period), cfg.Scheduler.Concurrency, l)
}

func ProvideHandler(
	l *applogger.Logger,
	analyze *usecase.AnalyzeUseCase,
	batch *usecase.BatchAnalyzeUseCase,
	evaluate *usecase.EvaluateUseCase,
	refresher *usecase.SnapshotRefresher,
) xhttp.Handler {
	return api.NewAnalysisEchoHandler(l, analyze, batch, evaluate, refresher)
}

// ProvideRateLimiter creates the per-client limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	refresher *usecase.SnapshotRefresher,
	events domrepo.EventPublisher,
	limiter *ratelimit.Limiter,
	ch *pkgch.Client,
	rc *icache.RedisCache,
) *server.App {
	opts := []server.Option{server.WithPublisher(events)}
	if refresher != nil {
		opts = append(opts, server.WithRefresher(refresher))
	}
	if limiter != nil {
		opts = append(opts, server.WithRateLimiter(limiter))
	}
	if ch != nil {
		opts = append(opts, server.WithClickHouse(ch))
	}
	if rc != nil {
		opts = append(opts, server.WithRedis(rc))
	}
	return server.New(cfg, l, handler, opts...)
}
