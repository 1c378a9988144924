package service

import (
	"context"
	"errors"

	"FinCast/internal/domain/models"
)

// ErrNoPriceData is returned by a PriceSource that reached its backend but
// found no closes for the symbol.
var ErrNoPriceData = errors.New("no price data")

// PriceSource returns an oldest-first series of daily closes. Live and
// synthetic implementations are interchangeable.
type PriceSource interface {
	Name() string
	FetchPrices(ctx context.Context, symbol string, days int) (models.PriceSeries, error)
}

// SentimentAnalyzer scores headlines into [-1, 1].
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, symbol string, headlines []string) (models.SentimentSignal, error)
}

// NarrativeGenerator writes a short free-text summary of a finished report.
type NarrativeGenerator interface {
	Generate(ctx context.Context, report *models.PredictionReport) (string, error)
}
