package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	dservice "FinCast/internal/domain/service"
	"FinCast/internal/service/metrics"
	"FinCast/internal/services/confidence"
	"FinCast/internal/services/marketdata"
	"FinCast/internal/services/narrative"
	"FinCast/internal/services/risk"
	"FinCast/internal/services/trend"
	applogger "FinCast/pkg/logger"
)

var (
	ErrInvalidSymbol          = errors.New("invalid symbol")
	ErrNoPriceData            = dservice.ErrNoPriceData
	ErrPriceSourceUnavailable = errors.New("price source unavailable")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^&]{0,14}$`)

const publishTimeout = 5 * time.Second

// PredictionUseCase assembles a PredictionReport: prices and sentiment are
// fetched concurrently, then trend and risk run side by side, then confidence.
type PredictionUseCase struct {
	prices      dservice.PriceSource
	sentiment   dservice.SentimentAnalyzer
	narrator    dservice.NarrativeGenerator
	publisher   domrepo.ReportPublisher
	broadcaster domrepo.ReportBroadcaster
	metrics     domrepo.Metrics
	log         *applogger.Logger

	defaultDays int
	timeout     time.Duration
	now         func() time.Time
	newID       func() string
}

type PredictionOption func(*PredictionUseCase)

// WithNarrator sets the remote narrative generator; without one every report
// uses the template.
func WithNarrator(g dservice.NarrativeGenerator) PredictionOption {
	return func(uc *PredictionUseCase) { uc.narrator = g }
}

func WithPublisher(p domrepo.ReportPublisher) PredictionOption {
	return func(uc *PredictionUseCase) { uc.publisher = p }
}

func WithBroadcaster(b domrepo.ReportBroadcaster) PredictionOption {
	return func(uc *PredictionUseCase) { uc.broadcaster = b }
}

func WithDefaultDays(days int) PredictionOption {
	return func(uc *PredictionUseCase) { uc.defaultDays = days }
}

// WithTimeout bounds one whole analysis, narrative included.
func WithTimeout(d time.Duration) PredictionOption {
	return func(uc *PredictionUseCase) { uc.timeout = d }
}

func NewPredictionUseCase(prices dservice.PriceSource, sentiment dservice.SentimentAnalyzer, m domrepo.Metrics, log *applogger.Logger, opts ...PredictionOption) *PredictionUseCase {
	uc := &PredictionUseCase{
		prices:      prices,
		sentiment:   sentiment,
		metrics:     m,
		log:         log,
		defaultDays: 10,
		timeout:     20 * time.Second,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type AnalyzeParams struct {
	Symbol    string
	Days      int
	Headlines []string
	// RequestID is generated when empty.
	RequestID string
}

// NormalizeSymbol upper-cases and trims s, and rejects anything that is not a
// plausible ticker.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

func (uc *PredictionUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*models.PredictionReport, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("analyze", time.Since(start).Seconds()) }()

	symbol, err := NormalizeSymbol(p.Symbol)
	if err != nil {
		uc.metrics.RecordError("invalid_symbol")
		return nil, err
	}
	days := p.Days
	if days == 0 {
		days = uc.defaultDays
	}
	days = marketdata.ClampDays(days)

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	var (
		prices    models.PriceSeries
		source    string
		sentiment models.SentimentSignal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, source, err = marketdata.Fetch(gctx, uc.prices, symbol, days)
		return uc.classifyPriceError(symbol, prices, err)
	})
	g.Go(func() error {
		sentiment = uc.analyzeSentiment(gctx, symbol, p.Headlines)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		trendResult models.TrendResult
		riskResult  models.RiskResult
	)
	g = new(errgroup.Group)
	g.Go(func() error {
		var err error
		trendResult, err = trend.Analyze(prices)
		return err
	})
	g.Go(func() error {
		riskResult = risk.Calculate(prices, sentiment.Score)
		return nil
	})
	if err := g.Wait(); err != nil {
		uc.metrics.RecordError("trend")
		return nil, fmt.Errorf("trend analysis: %w", err)
	}
	confidenceResult := confidence.Calculate(prices, sentiment.Score, trendResult.Direction, riskResult.Score)

	requestID := p.RequestID
	if requestID == "" {
		requestID = uc.newID()
	}
	report := &models.PredictionReport{
		RequestID:   requestID,
		Symbol:      symbol,
		Days:        days,
		PriceSource: source,
		Prices:      prices,
		Sentiment:   sentiment,
		Trend:       trendResult,
		Risk:        riskResult,
		Confidence:  confidenceResult,
		GeneratedAt: uc.now().UTC(),
	}
	report.Narrative, report.NarrativeSource = uc.narrate(ctx, report)

	uc.metrics.RecordAnalysis(symbol, trendResult.Direction)
	uc.metrics.RecordScores(symbol, riskResult.Score, confidenceResult.Score)
	uc.deliver(ctx, report)

	uc.log.Info("prediction generated",
		applogger.String("request_id", requestID),
		applogger.String("symbol", symbol),
		applogger.Int("days", days),
		applogger.String("price_source", source),
		applogger.String("direction", string(trendResult.Direction)),
		applogger.Int("risk", riskResult.Score),
		applogger.Int("confidence", confidenceResult.Score),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return report, nil
}

// AnalyzeSymbol runs an analysis without headlines, as the scheduler does.
func (uc *PredictionUseCase) AnalyzeSymbol(ctx context.Context, symbol string, days int) (*models.PredictionReport, error) {
	return uc.Analyze(ctx, AnalyzeParams{Symbol: symbol, Days: days})
}

func (uc *PredictionUseCase) classifyPriceError(symbol string, prices models.PriceSeries, err error) error {
	switch {
	case err == nil && len(prices) == 0:
		uc.metrics.RecordError("no_price_data")
		return fmt.Errorf("%s: %w", symbol, ErrNoPriceData)
	case err == nil:
		return nil
	case errors.Is(err, ErrNoPriceData):
		uc.metrics.RecordError("no_price_data")
		return err
	case errors.Is(err, context.Canceled):
		return err
	default:
		uc.metrics.RecordError("price_source")
		uc.log.Error("price fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
		return fmt.Errorf("%w: %v", ErrPriceSourceUnavailable, err)
	}
}

func (uc *PredictionUseCase) analyzeSentiment(ctx context.Context, symbol string, headlines []string) models.SentimentSignal {
	s, err := uc.sentiment.Analyze(ctx, symbol, headlines)
	if err != nil {
		uc.metrics.RecordError("sentiment")
		uc.log.Warn("sentiment unavailable, using neutral score",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return models.NeutralSentiment("Sentiment unavailable.")
	}
	return s
}

func (uc *PredictionUseCase) narrate(ctx context.Context, r *models.PredictionReport) (string, models.NarrativeSource) {
	if uc.narrator == nil {
		return narrative.Template(r), models.NarrativeTemplate
	}
	text, err := uc.narrator.Generate(ctx, r)
	if err != nil {
		metrics.RecordFallback(metrics.UpstreamNarrative, "template")
		uc.log.Warn("narrative generator failed, using template",
			applogger.String("request_id", r.RequestID),
			applogger.Error(err),
		)
		return narrative.Template(r), models.NarrativeTemplate
	}
	return text, models.NarrativeGenerated
}

// deliver publishes and broadcasts the report. Failures are logged only; the
// caller already has its result.
func (uc *PredictionUseCase) deliver(ctx context.Context, r *models.PredictionReport) {
	if uc.publisher != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := uc.publisher.Publish(pctx, r)
		cancel()
		if err != nil {
			uc.metrics.RecordError("publish")
			uc.log.Warn("report publish failed",
				applogger.String("request_id", r.RequestID),
				applogger.Error(err),
			)
		}
	}
	if uc.broadcaster != nil {
		uc.broadcaster.Broadcast(r)
	}
}
