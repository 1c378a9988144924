package marketdata

import (
	"context"
	"errors"

	"FinCast/internal/domain/models"
	dservice "FinCast/internal/domain/service"
	"FinCast/internal/service/metrics"
	applogger "FinCast/pkg/logger"
)

var (
	_ dservice.PriceSource = (*FallbackSource)(nil)
	_ Provenance           = (*FallbackSource)(nil)
)

// FallbackSource serves the primary source and switches to the secondary
// when the primary fails. Context cancellation is never masked.
type FallbackSource struct {
	primary   dservice.PriceSource
	secondary dservice.PriceSource
	log       *applogger.Logger
}

func NewFallbackSource(primary, secondary dservice.PriceSource, log *applogger.Logger) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary, log: log}
}

func (f *FallbackSource) Name() string { return f.primary.Name() }

func (f *FallbackSource) FetchPrices(ctx context.Context, symbol string, days int) (models.PriceSeries, error) {
	prices, _, err := f.FetchPricesWithSource(ctx, symbol, days)
	return prices, err
}

func (f *FallbackSource) FetchPricesWithSource(ctx context.Context, symbol string, days int) (models.PriceSeries, string, error) {
	prices, source, err := Fetch(ctx, f.primary, symbol, days)
	if err == nil && len(prices) > 0 {
		return prices, source, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, source, errors.Join(err, ctxErr)
	}
	if err == nil {
		err = dservice.ErrNoPriceData
	}

	f.log.Warn("primary price source failed, using fallback",
		applogger.String("symbol", symbol),
		applogger.String("primary", f.primary.Name()),
		applogger.String("fallback", f.secondary.Name()),
		applogger.Error(err),
	)
	metrics.RecordFallback(f.primary.Name(), f.secondary.Name())
	return Fetch(ctx, f.secondary, symbol, days)
}
