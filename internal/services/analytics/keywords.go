package analytics

import (
	"math"
	"strings"

	"FinCast/internal/domain/models"
	ind "FinCast/internal/services/indicators"
)

const (
	keywordWeight        = 0.12
	keywordLabelCutoff   = 0.3
	KeywordBreakdown     = "Keyword-based analysis (sentiment service unavailable)."
	NoHeadlinesBreakdown = "No headlines provided."
)

var (
	positiveKeywords = []string{
		"surge", "rally", "profit", "growth", "beat", "acquisition",
		"all-time high", "record", "upgrade", "bullish", "expansion", "recovery",
	}
	negativeKeywords = []string{
		"crash", "decline", "loss", "bearish", "downgrade", "recession",
		"sell-off", "default", "crisis", "miss", "correction", "layoff", "sanctions",
	}
)

// KeywordSentiment scores headlines by substring matches. Each keyword counts
// at most once; the score is clamped to [-1, 1].
func KeywordSentiment(headlines []string) models.SentimentSignal {
	if len(headlines) == 0 {
		return models.NeutralSentiment(NoHeadlinesBreakdown)
	}
	text := strings.ToLower(strings.Join(headlines, " "))

	var score float64
	for _, kw := range positiveKeywords {
		if strings.Contains(text, kw) {
			score += keywordWeight
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			score -= keywordWeight
		}
	}
	score = ind.Round(math.Max(-1, math.Min(1, score)), 2)

	label := models.SentimentNeutral
	switch {
	case score > keywordLabelCutoff:
		label = models.SentimentBullish
	case score < -keywordLabelCutoff:
		label = models.SentimentBearish
	}
	return models.SentimentSignal{Score: score, Label: label, Breakdown: KeywordBreakdown}
}
