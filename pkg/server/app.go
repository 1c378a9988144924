package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinCast/internal/handler/stream"
	"FinCast/internal/scheduler"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

type sweeper struct {
	name     string
	interval time.Duration
	fn       func() int
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	hub        *stream.Hub
	consumer   *pkgkafka.Consumer
	scheduler  *scheduler.Scheduler
	closers    []closer
	sweepers   []sweeper
}

type Option func(*App)

// WithConsumer runs c alongside the HTTP server. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer) Option {
	return func(a *App) { a.consumer = c }
}

func WithScheduler(s *scheduler.Scheduler) Option {
	return func(a *App) { a.scheduler = s }
}

// WithCloser registers fn to run on shutdown. Closers run in reverse order.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, closer{name: name, fn: fn}) }
}

// WithSweeper calls fn every interval until shutdown, e.g. to evict expired
// cache entries.
func WithSweeper(name string, interval time.Duration, fn func() int) Option {
	return func(a *App) { a.sweepers = append(a.sweepers, sweeper{name: name, interval: interval, fn: fn}) }
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server, hub *stream.Hub, opts ...Option) *App {
	a := &App{cfg: cfg, log: log, httpServer: httpServer, hub: hub}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return err
		}
	}
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	sweepCtx, cancelSweeps := context.WithCancel(ctx)
	defer cancelSweeps()
	for _, s := range a.sweepers {
		go a.sweep(sweepCtx, s)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}
	a.log.Info("fincast started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("price_source", a.cfg.Prediction.PriceSource),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
		applogger.Bool("scheduler", a.scheduler != nil),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancelSweeps()
	a.shutdown()
	return nil
}

func (a *App) sweep(ctx context.Context, s sweeper) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.fn(); n > 0 {
				a.log.Debug("sweep", applogger.String("name", s.name), applogger.Int("evicted", n))
			}
		}
	}
}

// shutdown stops intake first (HTTP, consumer, cron), then live streams, then
// the infrastructure clients.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
}
