// Package confidence grades how much a trend call can be trusted.
package confidence

import (
	"math"

	"FinCast/internal/domain/models"
	ind "FinCast/internal/services/indicators"
)

const (
	fullWindow         = 14.0
	alignmentThreshold = 0.05
	riskPenaltyFactor  = 0.35

	dataQualityWeight = 0.20
	r2Weight          = 0.30
	consistencyWeight = 0.20
	alignmentWeight   = 0.25
	riskWeight        = 0.05

	minScore = 5.0
	maxScore = 95.0
)

// Default is returned when fewer than three prices are available, so a
// two-point series gets it too; R² and consistency are undefined below three.
var Default = models.ConfidenceResult{
	Score:       30,
	Grade:       models.GradeD,
	Explanation: "Insufficient data for confidence analysis.",
}

// Calculate scores prices, sentiment in [-1, 1], the trend direction and the
// risk score produced for the same window.
func Calculate(prices []float64, sentiment float64, direction models.Direction, riskScore int) models.ConfidenceResult {
	if len(prices) < 3 {
		return Default
	}

	dataQuality := math.Min(100, float64(len(prices))/fullWindow*100)
	trendR2 := ind.LinearR2(prices) * 100
	consistency := ind.TrendConsistency(prices) * 100
	aligned := alignment(sentiment, direction)
	riskPenalty := float64(riskScore) * riskPenaltyFactor

	raw := dataQuality*dataQualityWeight +
		trendR2*r2Weight +
		consistency*consistencyWeight +
		aligned*alignmentWeight +
		(100-riskPenalty)*riskWeight

	score := clampScore(raw)
	grade, explanation := Grade(score)
	return models.ConfidenceResult{Score: score, Grade: grade, Explanation: explanation}
}

// clampScore rounds raw into [5, 95].
func clampScore(raw float64) int {
	return ind.RoundInt(math.Max(minScore, math.Min(maxScore, raw)))
}

func alignment(sentiment float64, direction models.Direction) float64 {
	switch {
	case direction == models.DirectionBullish && sentiment > alignmentThreshold:
		return math.Min(100, sentiment*80+20)
	case direction == models.DirectionBearish && sentiment < -alignmentThreshold:
		return math.Min(100, -sentiment*80+20)
	case direction == models.DirectionNeutral:
		return 50
	default:
		return 20
	}
}

// Grade maps a score to its letter and a fixed explanation.
func Grade(score int) (models.Grade, string) {
	switch {
	case score >= 80:
		return models.GradeA, "Strong signal, high data quality, consistent trend, aligned sentiment."
	case score >= 65:
		return models.GradeB, "Good signal, most indicators align but some noise present."
	case score >= 50:
		return models.GradeC, "Moderate signal, mixed indicators, use with additional analysis."
	case score >= 35:
		return models.GradeD, "Weak signal, low consistency or data quality."
	default:
		return models.GradeF, "Very weak signal, insufficient or contradictory data."
	}
}
