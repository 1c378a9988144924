package marketdata

import (
	"context"

	"FinCast/internal/domain/models"
	dservice "FinCast/internal/domain/service"
)

// Provenance is implemented by sources that delegate to other sources and can
// tell which one actually produced the series.
type Provenance interface {
	FetchPricesWithSource(ctx context.Context, symbol string, days int) (models.PriceSeries, string, error)
}

// Fetch returns the series together with the name of the source that served it.
func Fetch(ctx context.Context, src dservice.PriceSource, symbol string, days int) (models.PriceSeries, string, error) {
	if p, ok := src.(Provenance); ok {
		return p.FetchPricesWithSource(ctx, symbol, days)
	}
	prices, err := src.FetchPrices(ctx, symbol, days)
	return prices, src.Name(), err
}
