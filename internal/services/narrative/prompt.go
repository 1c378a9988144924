package narrative

import (
	"fmt"
	"strings"

	"FinCast/internal/domain/models"
)

// MaxWords is the length requested from the generator.
const MaxWords = 80

// Prompt asks for a short probabilistic analyst note grounded in the report.
func Prompt(r *models.PredictionReport) string {
	macd := "Negative"
	if r.Trend.Indicators.MACD > 0 {
		macd = "Positive"
	}
	sign := ""
	if r.Trend.PriceRange.ChangePercent > 0 {
		sign = "+"
	}

	var b strings.Builder
	b.WriteString("You are a professional quant analyst generating a short-term stock outlook. ")
	b.WriteString("Be concise and probabilistic (not financial advice).\n\n")
	fmt.Fprintf(&b, "Symbol: %s\n", r.Symbol)
	fmt.Fprintf(&b, "Direction Signal: %s (%d%% bullish indicators)\n", r.Trend.Direction, r.Trend.BullishPct)
	fmt.Fprintf(&b, "RSI: %d | MACD: %s\n", r.Trend.Indicators.RSI, macd)
	fmt.Fprintf(&b, "Sentiment: %s (%.2f)\n", sentimentLabel(r.Sentiment), r.Sentiment.Score)
	fmt.Fprintf(&b, "7-Day Price Target: $%s (%s%s%%)\n",
		formatNumber(r.Trend.PriceRange.Target7d), sign, formatNumber(r.Trend.PriceRange.ChangePercent))
	fmt.Fprintf(&b, "Risk Level: %s (%d/100)\n", r.Risk.Level, r.Risk.Score)
	fmt.Fprintf(&b, "Confidence: %d%% (Grade %s)\n\n", r.Confidence.Score, r.Confidence.Grade)
	fmt.Fprintf(&b, "Write a 2-3 sentence probabilistic analyst summary. Reference specific indicators. "+
		"End with a disclaimer that this is AI-generated probabilistic guidance, not financial advice. "+
		"Keep it under %d words.", MaxWords)
	return b.String()
}
