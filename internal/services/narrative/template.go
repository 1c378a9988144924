// Package narrative renders the deterministic fallback summary and the prompt
// sent to the remote narrative generator.
package narrative

import (
	"fmt"
	"strconv"
	"strings"

	"FinCast/internal/domain/models"
)

const Disclaimer = "This is AI-generated probabilistic guidance, not financial advice."

// Template builds the one-paragraph summary used when no generator answers.
func Template(r *models.PredictionReport) string {
	return fmt.Sprintf("%s signal detected for %s with %d%% confidence. RSI at %d and %s sentiment suggest a 7-day target of $%s. %s",
		r.Trend.Direction,
		r.Symbol,
		r.Confidence.Score,
		r.Trend.Indicators.RSI,
		strings.ToLower(string(sentimentLabel(r.Sentiment))),
		formatNumber(r.Trend.PriceRange.Target7d),
		Disclaimer,
	)
}

func sentimentLabel(s models.SentimentSignal) models.SentimentLabel {
	if s.Label == "" {
		return models.SentimentNeutral
	}
	return s.Label
}

// formatNumber prints the shortest decimal form: 113, 115.82.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
