package marketdata

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	dservice "FinCast/internal/domain/service"
	"FinCast/internal/service/cache"
	applogger "FinCast/pkg/logger"
)

var (
	_ dservice.PriceSource = (*CachedSource)(nil)
	_ Provenance           = (*CachedSource)(nil)
)

// CachedSource memoizes an inner source per (symbol, days) for ttl. Cache
// failures are logged and bypassed.
type CachedSource struct {
	inner dservice.PriceSource
	cache cache.BytesCache
	ttl   time.Duration
	log   *applogger.Logger
}

func NewCachedSource(inner dservice.PriceSource, c cache.BytesCache, ttl time.Duration, log *applogger.Logger) *CachedSource {
	return &CachedSource{inner: inner, cache: c, ttl: ttl, log: log}
}

type cachedSeries struct {
	Source string             `json:"source"`
	Prices models.PriceSeries `json:"prices"`
}

func (s *CachedSource) Name() string { return s.inner.Name() }

func (s *CachedSource) FetchPrices(ctx context.Context, symbol string, days int) (models.PriceSeries, error) {
	prices, _, err := s.FetchPricesWithSource(ctx, symbol, days)
	return prices, err
}

func (s *CachedSource) FetchPricesWithSource(ctx context.Context, symbol string, days int) (models.PriceSeries, string, error) {
	key := cache.Key("prices", s.inner.Name(), strings.ToUpper(symbol), strconv.Itoa(days))

	if b, ok, err := s.cache.GetBytes(ctx, key); err != nil {
		s.log.Warn("price cache read failed", applogger.String("key", key), applogger.Error(err))
	} else if ok {
		var hit cachedSeries
		if err := json.Unmarshal(b, &hit); err == nil && len(hit.Prices) > 0 {
			return hit.Prices, hit.Source, nil
		}
	}

	prices, source, err := Fetch(ctx, s.inner, symbol, days)
	if err != nil {
		return nil, source, err
	}

	if b, err := json.Marshal(cachedSeries{Source: source, Prices: prices}); err == nil {
		if err := s.cache.SetBytes(ctx, key, b, s.ttl); err != nil {
			s.log.Warn("price cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return prices, source, nil
}
