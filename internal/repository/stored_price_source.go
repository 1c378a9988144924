package repository

import (
	"context"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	dservice "FinCast/internal/domain/service"
	"FinCast/internal/service/metrics"
)

var _ dservice.PriceSource = (*StoredPriceSource)(nil)

// StoredPriceSource serves closes that an ingestion job already wrote to a
// PriceStore.
type StoredPriceSource struct {
	store domrepo.PriceStore
}

func NewStoredPriceSource(store domrepo.PriceStore) *StoredPriceSource {
	return &StoredPriceSource{store: store}
}

func (s *StoredPriceSource) Name() string { return "clickhouse" }

func (s *StoredPriceSource) FetchPrices(ctx context.Context, symbol string, days int) (models.PriceSeries, error) {
	start := time.Now()
	closes, err := s.store.LatestCloses(ctx, symbol, days)
	metrics.ObserveCall(metrics.UpstreamPriceDB, start, err)
	if err != nil {
		return nil, err
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, dservice.ErrNoPriceData)
	}
	return models.PriceSeries(closes), nil
}
