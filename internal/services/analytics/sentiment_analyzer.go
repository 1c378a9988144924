package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/service/metrics"
	applogger "FinCast/pkg/logger"
)

var _ domsvc.SentimentAnalyzer = (*HTTPSentimentAnalyzer)(nil)

// HTTPSentimentAnalyzer asks the remote sentiment service to score headlines
// and falls back to keyword matching when it is missing or failing.
type HTTPSentimentAnalyzer struct {
	base *HTTPServiceBase
	log  *applogger.Logger
}

func NewHTTPSentimentAnalyzer(base *HTTPServiceBase, log *applogger.Logger) *HTTPSentimentAnalyzer {
	return &HTTPSentimentAnalyzer{base: base, log: log}
}

type sentimentRequest struct {
	Symbol    string   `json:"symbol"`
	Headlines []string `json:"headlines"`
	Prompt    string   `json:"prompt"`
}

// Analyze never fails: without headlines it is neutral, and remote failures
// degrade to KeywordSentiment.
func (a *HTTPSentimentAnalyzer) Analyze(ctx context.Context, symbol string, headlines []string) (models.SentimentSignal, error) {
	if len(headlines) == 0 {
		return models.NeutralSentiment(NoHeadlinesBreakdown), nil
	}
	if !a.base.Configured() {
		metrics.RecordFallback(metrics.UpstreamSentiment, "keywords")
		return KeywordSentiment(headlines), nil
	}

	start := time.Now()
	var raw []byte
	err := a.base.PostJSONWithRetry(ctx, "/v1/sentiment", sentimentRequest{
		Symbol:    symbol,
		Headlines: headlines,
		Prompt:    SentimentPrompt(symbol, headlines),
	}, &raw)
	var signal models.SentimentSignal
	if err == nil {
		signal, err = ParseSentimentReply(raw)
	}
	metrics.ObserveCall(metrics.UpstreamSentiment, start, err)
	if err != nil {
		a.log.Warn("sentiment service failed, using keyword analysis",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		metrics.RecordFallback(metrics.UpstreamSentiment, "keywords")
		return KeywordSentiment(headlines), nil
	}
	return signal, nil
}

// SentimentPrompt is forwarded to the model behind the sentiment service.
func SentimentPrompt(symbol string, headlines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a financial sentiment analyst. Analyse the following recent news headlines for %s.\n\nHeadlines:\n", symbol)
	for i, h := range headlines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}
	b.WriteString("\nRespond in strict JSON with:\n")
	b.WriteString(`{"score": <number between -1.0 (very bearish) and 1.0 (very bullish)>, `)
	b.WriteString(`"label": "<Very Bearish | Bearish | Neutral | Bullish | Very Bullish>", `)
	b.WriteString(`"breakdown": "<1-2 sentence summary of the dominant sentiment trend>"}`)
	b.WriteString("\nReturn ONLY the JSON. No extra text.")
	return b.String()
}

type sentimentReply struct {
	Score     json.RawMessage `json:"score"`
	Label     string          `json:"label"`
	Breakdown string          `json:"breakdown"`
}

var knownLabels = []models.SentimentLabel{
	models.SentimentVeryBearish,
	models.SentimentBearish,
	models.SentimentNeutral,
	models.SentimentBullish,
	models.SentimentVeryBullish,
}

// ParseSentimentReply accepts the model's JSON, optionally wrapped in a
// markdown code fence. A non-numeric score counts as 0 and an unknown label
// as Neutral.
func ParseSentimentReply(raw []byte) (models.SentimentSignal, error) {
	body := bytes.TrimSpace(raw)
	body = bytes.TrimPrefix(body, []byte("```json"))
	body = bytes.TrimPrefix(body, []byte("```"))
	body = bytes.TrimSuffix(body, []byte("```"))
	body = bytes.TrimSpace(body)

	var r sentimentReply
	if err := json.Unmarshal(body, &r); err != nil {
		return models.SentimentSignal{}, fmt.Errorf("decode sentiment reply: %w", err)
	}

	score := parseScore(r.Score)
	label := models.SentimentNeutral
	for _, l := range knownLabels {
		if strings.EqualFold(strings.TrimSpace(r.Label), string(l)) {
			label = l
			break
		}
	}
	return models.SentimentSignal{
		Score:     math.Max(-1, math.Min(1, score)),
		Label:     label,
		Breakdown: r.Breakdown,
	}, nil
}

func parseScore(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil && !math.IsNaN(f) {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return 0
}
