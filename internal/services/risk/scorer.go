// Package risk combines volatility, drawdown, momentum and sentiment into a
// 0-100 risk score.
package risk

import (
	"math"

	"FinCast/internal/domain/models"
	ind "FinCast/internal/services/indicators"
)

const (
	volatilityScale = 15.0
	drawdownScale   = 3.0
	momentumScale   = 20.0
	// sentimentRisk tops out at 50 (sentiment -1); the other factors cap at 100.
	sentimentScale = 25.0

	volatilityWeight = 0.35
	drawdownWeight   = 0.30
	momentumWeight   = 0.15
	sentimentWeight  = 0.20
)

// Default is returned for fewer than two prices.
var Default = models.RiskResult{Score: 50, Level: models.RiskMedium}

// Calculate scores prices together with a sentiment score in [-1, 1].
func Calculate(prices []float64, sentiment float64) models.RiskResult {
	if len(prices) < 2 {
		return Default
	}

	volScore := math.Min(100, ind.StdDev(ind.DailyReturns(prices))*100*volatilityScale)
	ddScore := math.Min(100, ind.MaxDrawdown(prices)*100*drawdownScale)
	momentum := math.Min(100, ind.MeanNormalizedSlope(prices)*100*momentumScale)
	sentimentRisk := (-sentiment + 1) * sentimentScale

	raw := volScore*volatilityWeight +
		ddScore*drawdownWeight +
		momentum*momentumWeight +
		sentimentRisk*sentimentWeight
	score := ind.RoundInt(math.Max(0, math.Min(100, raw)))

	return models.RiskResult{
		Score: score,
		Level: Level(score),
		Factors: &models.RiskFactors{
			VolatilityScore: ind.RoundInt(volScore),
			DrawdownScore:   ind.RoundInt(ddScore),
			MomentumRisk:    ind.RoundInt(momentum),
			SentimentRisk:   ind.RoundInt(sentimentRisk),
		},
	}
}

// Level maps a score to its band; lower bounds are inclusive.
func Level(score int) models.RiskLevel {
	switch {
	case score >= 75:
		return models.RiskVeryHigh
	case score >= 55:
		return models.RiskHigh
	case score >= 35:
		return models.RiskMedium
	case score >= 15:
		return models.RiskLow
	default:
		return models.RiskVeryLow
	}
}
