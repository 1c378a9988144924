package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	domrepo "FinCast/internal/domain/repository"
	dservice "FinCast/internal/domain/service"
	"FinCast/internal/handler/api"
	"FinCast/internal/handler/stream"
	internalrepo "FinCast/internal/repository"
	"FinCast/internal/scheduler"
	"FinCast/internal/service/cache"
	"FinCast/internal/service/finnhub"
	upstream "FinCast/internal/service/metrics"
	"FinCast/internal/service/ratelimit"
	"FinCast/internal/services/analytics"
	"FinCast/internal/services/marketdata"
	"FinCast/internal/usecase"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/metrics"
	"FinCast/pkg/server"
)

// ProvideLogger builds the root logger from the log section. With Kafka on,
// deduplicated warnings and errors are also shipped to the digest topic; the
// digest is attached here because child loggers copy it on With.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.DigestTopic != "" {
		l.AttachDigest(applogger.NewDigest(applogger.DigestConfig{
			Interval:  time.Minute,
			Topic:     cfg.Kafka.DigestTopic,
			Publisher: producer,
		}))
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the process registry with runtime collectors and
// the upstream call metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstream.Register(reg)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideCache picks Redis when enabled, otherwise the in-process TTL cache.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	r := cfg.Cache.Redis
	if !r.Enabled {
		return cache.NewTTLCache()
	}
	return cache.NewRedisCache(cache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB})
}

// ProvideClickHouseClient connects to ClickHouse. Returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	c := cfg.ClickHouse
	if !c.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.DialTimeout+c.ReadTimeout)
	defer cancel()
	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(c.Host),
		pkgch.WithPort(c.Port),
		pkgch.WithDatabase(c.Database),
		pkgch.WithCredentials(c.User, c.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(c.UseHTTP),
		pkgch.WithTimeouts(c.DialTimeout, c.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePriceStore creates the daily-closes store and its table. Returns nil
// without a ClickHouse client.
func ProvidePriceStore(ch *pkgch.Client, cfg *config.Config, log *applogger.Logger) (*internalrepo.CHPriceStore, error) {
	if ch == nil {
		return nil, nil
	}
	store, err := internalrepo.NewCHPriceStore(ch, cfg.ClickHouse.Table, log)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ch.InitSchema(ctx, store.Schema()); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvidePriceSource assembles the configured source, the synthetic fallback
// and the cache, outermost last.
func ProvidePriceSource(cfg *config.Config, c cache.BytesCache, store *internalrepo.CHPriceStore, log *applogger.Logger) (dservice.PriceSource, error) {
	p := cfg.Prediction
	synthetic := marketdata.NewSyntheticSource(p.SyntheticSeed)

	var src dservice.PriceSource
	switch p.PriceSource {
	case config.PriceSourceSynthetic:
		src = synthetic
	case config.PriceSourceFinnhub:
		f := cfg.Finnhub
		src = finnhub.New(f.APIKey,
			finnhub.WithBaseURL(f.BaseURL),
			finnhub.WithRateLimit(f.RequestsPerSecond, 5),
			finnhub.WithMaxRetries(f.MaxRetries),
			finnhub.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(f.Timeout))),
		)
	case config.PriceSourceClickHouse:
		if store == nil {
			return nil, fmt.Errorf("price source %q needs clickhouse", p.PriceSource)
		}
		src = internalrepo.NewStoredPriceSource(store)
	default:
		return nil, fmt.Errorf("unknown price source %q", p.PriceSource)
	}

	if src != synthetic && p.SyntheticFallback {
		src = marketdata.NewFallbackSource(src, synthetic, log)
	}
	if cfg.Cache.PriceTTL > 0 {
		src = marketdata.NewCachedSource(src, c, cfg.Cache.PriceTTL, log)
	}
	return src, nil
}

func ProvideSentimentAnalyzer(cfg *config.Config, log *applogger.Logger) dservice.SentimentAnalyzer {
	a := cfg.Analytics
	return analytics.NewHTTPSentimentAnalyzer(analytics.NewHTTPServiceBase(a.SentimentURL, a.Timeout, a.MaxRetries), log)
}

// ProvideNarrativeGenerator returns nil when no narrative service is
// configured, which selects the template narrative directly.
func ProvideNarrativeGenerator(cfg *config.Config) dservice.NarrativeGenerator {
	a := cfg.Analytics
	if a.NarrativeURL == "" {
		return nil
	}
	return analytics.NewHTTPNarrativeGenerator(analytics.NewHTTPServiceBase(a.NarrativeURL, a.Timeout, a.MaxRetries))
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	k := cfg.Kafka
	if !k.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(reg,
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithMaxAttempts(k.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(k.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(k.Producer.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideReportPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.ReportPublisher {
	if producer == nil {
		return internalrepo.NopReportPublisher{}
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportsTopic)
}

func ProvideHub(cfg *config.Config, log *applogger.Logger) *stream.Hub {
	return stream.NewHub(log, cfg.Server.AllowedOrigins)
}

func ProvidePredictionUseCase(
	cfg *config.Config,
	prices dservice.PriceSource,
	sentiment dservice.SentimentAnalyzer,
	narrator dservice.NarrativeGenerator,
	publisher domrepo.ReportPublisher,
	hub *stream.Hub,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.PredictionUseCase {
	return usecase.NewPredictionUseCase(prices, sentiment, m, log,
		usecase.WithNarrator(narrator),
		usecase.WithPublisher(publisher),
		usecase.WithBroadcaster(hub),
		usecase.WithDefaultDays(cfg.Prediction.DefaultDays),
		usecase.WithTimeout(cfg.Prediction.RequestTimeout),
	)
}

// ProvideKafkaConsumer creates the analyze-requests consumer. Returns nil
// unless the consumer is enabled.
func ProvideKafkaConsumer(cfg *config.Config, reg *prometheus.Registry, log *applogger.Logger, uc *usecase.PredictionUseCase) (*pkgkafka.Consumer, error) {
	k := cfg.Kafka
	if !k.Enabled || !k.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log, reg,
		pkgkafka.WithConsumerBrokers(k.Brokers),
		pkgkafka.WithConsumerGroupID(k.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(k.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(k.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(k.Consumer.RetryMax, k.Consumer.BackoffMin, k.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(k.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook(log))
	consumer.RegisterHandler(usecase.NewKafkaAnalyzeRequestsHandler(k.RequestsTopic, uc))
	return consumer, nil
}

// ProvideScheduler registers the watchlist refresh. Returns nil when disabled.
func ProvideScheduler(cfg *config.Config, uc *usecase.PredictionUseCase, log *applogger.Logger) (*scheduler.Scheduler, error) {
	s := cfg.Scheduler
	if !s.Enabled {
		return nil, nil
	}
	sched := scheduler.New(uc, s.Watchlist, s.Days, log)
	if err := sched.Register(s.Spec); err != nil {
		return nil, err
	}
	return sched, nil
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil
	}
	return ratelimit.New(rl.RequestsPerMinute, rl.Burst)
}

// ProvidePredictionHandler builds the REST handler with a health check for
// every optional dependency that is wired.
func ProvidePredictionHandler(
	cfg *config.Config,
	log *applogger.Logger,
	uc *usecase.PredictionUseCase,
	limiter *ratelimit.Limiter,
	c cache.BytesCache,
	store *internalrepo.CHPriceStore,
) *api.PredictionEchoHandler {
	var limit echo.MiddlewareFunc
	if limiter != nil {
		limit = ratelimit.Middleware(limiter)
	}
	checks := map[string]api.HealthCheck{}
	if store != nil {
		checks["clickhouse"] = store.Health
	}
	if r, ok := c.(*cache.RedisCache); ok {
		checks["redis"] = r.Ping
	}
	return api.NewPredictionEchoHandler(log, uc, cfg.Prediction.Symbols, limit, checks)
}

func ProvideHTTPServer(
	cfg *config.Config,
	log *applogger.Logger,
	reg *prometheus.Registry,
	ph *api.PredictionEchoHandler,
	hub *stream.Hub,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(log, []xhttp.Handler{ph, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		xhttp.WithMetrics(metricsPath, reg, reg),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	hub *stream.Hub,
	consumer *pkgkafka.Consumer,
	sched *scheduler.Scheduler,
	c cache.BytesCache,
	limiter *ratelimit.Limiter,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	opts := []server.Option{
		server.WithConsumer(consumer),
		server.WithScheduler(sched),
	}
	switch cc := c.(type) {
	case *cache.TTLCache:
		opts = append(opts, server.WithSweeper("price_cache", time.Minute, cc.Sweep))
	case *cache.RedisCache:
		opts = append(opts, server.WithCloser("redis", cc.Close))
	}
	if limiter != nil {
		opts = append(opts, server.WithSweeper("rate_limiter", time.Minute, limiter.Cleanup))
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch.Close))
	}
	if producer != nil {
		opts = append(opts,
			server.WithCloser("kafka_producer", producer.Close),
			// closers run in reverse, so the digest flushes before the producer closes
			server.WithCloser("log_digest", func() error {
				log.DetachDigest()
				return nil
			}),
		)
	}
	return server.New(cfg, log, srv, hub, opts...)
}
