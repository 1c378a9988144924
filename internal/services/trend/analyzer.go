// Package trend classifies a short price window with a weighted indicator vote
// and projects a 7-day price target.
package trend

import (
	"errors"

	"FinCast/internal/domain/models"
	ind "FinCast/internal/services/indicators"
)

var ErrEmptySeries = errors.New("trend: empty price series")

const (
	smaVoteWeight  = 2
	rsiOversold    = 35.0
	rsiOverbought  = 65.0
	slopeDeadZone  = 0.0005
	bullishBand    = 60.0
	bearishBand    = 40.0
	targetHorizon  = 7.0
	targetBandHigh = 1.025
	targetBandLow  = 0.975
)

// Analyze runs the indicator vote on prices. It only fails on an empty series.
func Analyze(prices []float64) (models.TrendResult, error) {
	n := len(prices)
	if n == 0 {
		return models.TrendResult{}, ErrEmptySeries
	}
	last, first := prices[n-1], prices[0]

	sma5 := last
	if n >= 5 {
		sma5 = ind.SMA(prices, 5)
	}
	sma10 := ind.SMA(prices, min(10, n))
	ema7 := ind.EMA(prices, min(7, n))
	rsi := ind.RSI(prices, min(7, n-1))
	macd := ind.MACDLite(prices)
	slope := ind.LinearSlope(prices)
	support, resistance := ind.SupportResistance(prices)

	var bull, bear int
	vote := func(cmp, weight int) {
		switch cmp {
		case 1:
			bull += weight
		case -1:
			bear += weight
		}
	}
	vote(ind.Compare(sma5, sma10), smaVoteWeight)
	vote(ind.Compare(last, ema7), 1)
	if rsi < rsiOversold {
		bull++
	}
	if rsi > rsiOverbought {
		bear++
	}
	vote(ind.Compare(macd, 0), 1)
	switch {
	case slope > slopeDeadZone:
		bull++
	case slope < -slopeDeadZone:
		bear++
	}

	bullishPct := 50.0
	if total := bull + bear; total > 0 {
		bullishPct = float64(bull) / float64(total) * 100
	}

	direction := models.DirectionNeutral
	switch {
	case bullishPct >= bullishBand:
		direction = models.DirectionBullish
	case bullishPct <= bearishBand:
		direction = models.DirectionBearish
	}

	steps := float64(n - 1)
	if steps == 0 {
		steps = 1
	}
	target := last + (last-first)/steps*targetHorizon

	var changePct float64
	if last != 0 {
		changePct = ind.Round((target-last)/last*100, 2)
	}

	bullRounded := ind.RoundInt(bullishPct)
	return models.TrendResult{
		Direction:    direction,
		BullishPct:   bullRounded,
		BearishPct:   100 - bullRounded,
		BullishVotes: bull,
		BearishVotes: bear,
		Indicators: models.Indicators{
			SMA5:        ind.Round(sma5, 2),
			SMA10:       ind.Round(sma10, 2),
			EMA7:        ind.Round(ema7, 2),
			RSI:         ind.RoundInt(rsi),
			MACD:        ind.Round(macd, 3),
			LinearSlope: ind.Round(slope, 4),
		},
		PriceRange: models.PriceRange{
			Current:       last,
			Target7d:      ind.Round(target, 2),
			TargetHigh:    ind.Round(target*targetBandHigh, 2),
			TargetLow:     ind.Round(target*targetBandLow, 2),
			ChangePercent: changePct,
		},
		Support:    ind.Round(support, 2),
		Resistance: ind.Round(resistance, 2),
	}, nil
}
