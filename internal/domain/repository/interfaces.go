package repository

import (
	"context"

	"FinCast/internal/domain/models"
)

// PriceStore reads stored daily closes.
type PriceStore interface {
	LatestCloses(ctx context.Context, symbol string, n int) ([]float64, error)
	Health(ctx context.Context) error
}

// ReportPublisher emits finished reports to downstream consumers.
type ReportPublisher interface {
	Publish(ctx context.Context, r *models.PredictionReport) error
	Close() error
}

// ReportBroadcaster pushes finished reports to live subscribers.
type ReportBroadcaster interface {
	Broadcast(r *models.PredictionReport)
}

type Metrics interface {
	RecordAnalysis(symbol string, direction models.Direction)
	RecordScores(symbol string, risk, confidence int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
