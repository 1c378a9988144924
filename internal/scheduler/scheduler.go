// Package scheduler refreshes predictions for a watchlist on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"FinCast/internal/domain/models"
	"FinCast/pkg/config"
	applogger "FinCast/pkg/logger"
)

// Analyzer is satisfied by *usecase.PredictionUseCase.
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string, days int) (*models.PredictionReport, error)
}

type Scheduler struct {
	cron      *cron.Cron
	analyzer  Analyzer
	watchlist []string
	days      int
	timeout   time.Duration
	log       *applogger.Logger
}

func New(analyzer Analyzer, watchlist []string, days int, log *applogger.Logger) *Scheduler {
	log = log.With(applogger.String("component", "scheduler"))
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(config.CronParseOptions)),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		analyzer:  analyzer,
		watchlist: watchlist,
		days:      days,
		timeout:   30 * time.Second,
		log:       log,
	}
}

// Register adds the watchlist refresh under spec. Examples:
//   - "0 */30 * * * *" every 30 minutes
//   - "@hourly"
//   - "0 30 9 * * MON-FRI" 09:30 on weekdays
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("register watchlist refresh: %w", err)
	}
	s.log.Info("watchlist refresh registered",
		applogger.String("spec", spec),
		applogger.Strings("watchlist", s.watchlist),
	)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop waits for a running refresh to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunOnce analyzes every watchlist symbol in order and returns how many
// succeeded. One failing symbol does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	start := time.Now()
	ok := 0
	for _, symbol := range s.watchlist {
		if ctx.Err() != nil {
			break
		}
		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		r, err := s.analyzer.AnalyzeSymbol(sctx, symbol, s.days)
		cancel()
		if err != nil {
			s.log.Error("watchlist analysis failed", applogger.String("symbol", symbol), applogger.Error(err))
			continue
		}
		ok++
		s.log.Debug("watchlist analysis done",
			applogger.String("symbol", r.Symbol),
			applogger.String("direction", string(r.Trend.Direction)),
			applogger.Int("confidence", r.Confidence.Score),
		)
	}
	s.log.Info("watchlist refresh finished",
		applogger.Int("ok", ok),
		applogger.Int("total", len(s.watchlist)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return ok
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, applogger.Any("cron", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, applogger.Error(err), applogger.Any("cron", keysAndValues))
}
