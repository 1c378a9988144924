// Package marketdata provides price sources and the decorators that combine
// them: a seeded synthetic random walk, a TTL cache and a live-to-synthetic
// fallback chain.
package marketdata

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"FinCast/internal/domain/models"
	dservice "FinCast/internal/domain/service"
	ind "FinCast/internal/services/indicators"
)

var _ dservice.PriceSource = (*SyntheticSource)(nil)

const (
	DefaultBasePrice = 150.0

	// symbols longer than this (mostly Indian large caps and indices) get the calmer sigma
	longSymbolLen = 5
	sigmaLong     = 0.012
	sigmaShort    = 0.020
	driftUp       = 0.002
	driftDown     = -0.001

	MinDays = 7
	MaxDays = 14
)

// BasePrices are the reference levels the random walk starts from.
var BasePrices = map[string]float64{
	"AAPL":     182.50,
	"GOOGL":    141.80,
	"MSFT":     415.70,
	"TSLA":     175.20,
	"AMZN":     185.30,
	"META":     500.40,
	"RELIANCE": 2940.50,
	"TCS":      3720.00,
	"INFY":     1560.00,
	"HDFCBANK": 1620.80,
	"NIFTY":    25496.55,
	"SENSEX":   83721.18,
	"NVDA":     875.50,
	"AMD":      175.40,
	"SBIN":     810.30,
}

// BasePrice returns the reference level for symbol and whether it is known.
func BasePrice(symbol string) (float64, bool) {
	p, ok := BasePrices[strings.ToUpper(symbol)]
	if !ok {
		return DefaultBasePrice, false
	}
	return p, true
}

// SupportedSymbols lists symbols with their reference level, sorted by symbol.
func SupportedSymbols(symbols []string) []models.SupportedSymbol {
	out := make([]models.SupportedSymbol, 0, len(symbols))
	for _, s := range symbols {
		p, _ := BasePrice(s)
		out = append(out, models.SupportedSymbol{Symbol: strings.ToUpper(s), BasePrice: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SyntheticSource simulates daily closes with a random walk. It is safe for
// concurrent use.
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticSource seeds the walk; seed 0 uses the clock.
func NewSyntheticSource(seed int64) *SyntheticSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *SyntheticSource) Name() string { return "synthetic" }

func (s *SyntheticSource) FetchPrices(ctx context.Context, symbol string, days int) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base, _ := BasePrice(symbol)
	sigma := sigmaShort
	if len(symbol) > longSymbolLen {
		sigma = sigmaLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	drift := driftDown
	if s.rng.Float64() > 0.5 {
		drift = driftUp
	}
	return Generate(s.rng, base, ClampDays(days), drift, sigma), nil
}

// Generate walks p[i] = p[i-1]*(1+drift+shock) with shock uniform in
// [-sigma, sigma), rounding every point to cents.
func Generate(rng *rand.Rand, base float64, days int, drift, sigma float64) models.PriceSeries {
	if days < 1 {
		return models.PriceSeries{}
	}
	raw := make([]float64, days)
	raw[0] = base
	for i := 1; i < days; i++ {
		shock := (rng.Float64() - 0.5) * 2 * sigma
		raw[i] = raw[i-1] * (1 + drift + shock)
	}
	out := make(models.PriceSeries, days)
	for i, p := range raw {
		out[i] = ind.Round(p, 2)
	}
	return out
}

// ClampDays bounds a requested window to [MinDays, MaxDays].
func ClampDays(days int) int {
	return max(MinDays, min(MaxDays, days))
}
