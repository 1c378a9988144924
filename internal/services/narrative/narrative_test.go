package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinCast/internal/domain/models"
)

func sampleReport() *models.PredictionReport {
	return &models.PredictionReport{
		Symbol:    "AAPL",
		Sentiment: models.SentimentSignal{Score: 0.42, Label: models.SentimentVeryBullish},
		Trend: models.TrendResult{
			Direction:  models.DirectionBullish,
			BullishPct: 83,
			Indicators: models.Indicators{RSI: 100, MACD: 1.184},
			PriceRange: models.PriceRange{Target7d: 113, ChangePercent: 6.6},
		},
		Risk:       models.RiskResult{Score: 38, Level: models.RiskMedium},
		Confidence: models.ConfidenceResult{Score: 71, Grade: models.GradeB},
	}
}

func TestTemplate(t *testing.T) {
	got := Template(sampleReport())
	assert.Equal(t, "BULLISH signal detected for AAPL with 71% confidence. RSI at 100 and very bullish "+
		"sentiment suggest a 7-day target of $113. This is AI-generated probabilistic guidance, not financial advice.", got)
}

func TestTemplateDefaultsMissingLabel(t *testing.T) {
	r := sampleReport()
	r.Sentiment = models.SentimentSignal{}
	r.Trend.PriceRange.Target7d = 115.82
	got := Template(r)
	assert.Contains(t, got, "neutral sentiment")
	assert.Contains(t, got, "$115.82.")
}

func TestPrompt(t *testing.T) {
	got := Prompt(sampleReport())
	assert.Contains(t, got, "Direction Signal: BULLISH (83% bullish indicators)")
	assert.Contains(t, got, "RSI: 100 | MACD: Positive")
	assert.Contains(t, got, "Sentiment: Very Bullish (0.42)")
	assert.Contains(t, got, "7-Day Price Target: $113 (+6.6%)")
	assert.Contains(t, got, "Risk Level: Medium (38/100)")
	assert.Contains(t, got, "Confidence: 71% (Grade B)")

	r := sampleReport()
	r.Trend.Indicators.MACD = -0.5
	r.Trend.PriceRange.ChangePercent = -2.25
	got = Prompt(r)
	assert.Contains(t, got, "MACD: Negative")
	assert.Contains(t, got, "(-2.25%)")
}
