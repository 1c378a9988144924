package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

func newTestBase(url string) *HTTPServiceBase {
	b := NewHTTPServiceBase(url, time.Second, 2)
	b.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return b
}

func TestKeywordSentiment(t *testing.T) {
	tests := []struct {
		name      string
		headlines []string
		score     float64
		label     models.SentimentLabel
	}{
		{"bullish", []string{"Apple shares surge to record profit"}, 0.36, models.SentimentBullish},
		{"bearish", []string{"Markets crash amid recession fears", "Big tech layoffs continue"}, -0.36, models.SentimentBearish},
		{"mixed", []string{"Chipmaker stock surge fades into crash"}, 0, models.SentimentNeutral},
		{"each keyword once", []string{"surge", "surge", "surge surge"}, 0.12, models.SentimentNeutral},
		{"case insensitive", []string{"ANALYST UPGRADE", "BULLISH CALLS"}, 0.24, models.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := KeywordSentiment(tt.headlines)
			assert.InDelta(t, tt.score, s.Score, 1e-9)
			assert.Equal(t, tt.label, s.Label)
			assert.Equal(t, KeywordBreakdown, s.Breakdown)
		})
	}
}

func TestKeywordSentimentClamps(t *testing.T) {
	headlines := []string{
		"surge rally profit growth beat acquisition all-time high record upgrade bullish expansion recovery",
	}
	s := KeywordSentiment(headlines)
	assert.Equal(t, 1.0, s.Score)
	assert.Equal(t, models.SentimentBullish, s.Label)
}

func TestParseSentimentReply(t *testing.T) {
	s, err := ParseSentimentReply([]byte("```json\n{\"score\": \"0.8\", \"label\": \"very bullish\", \"breakdown\": \"Strong demand.\"}\n```"))
	require.NoError(t, err)
	assert.Equal(t, 0.8, s.Score)
	assert.Equal(t, models.SentimentVeryBullish, s.Label)
	assert.Equal(t, "Strong demand.", s.Breakdown)

	s, err = ParseSentimentReply([]byte(`{"score": 3, "label": "Ecstatic"}`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Score)
	assert.Equal(t, models.SentimentNeutral, s.Label)

	s, err = ParseSentimentReply([]byte(`{"score": "n/a", "label": "Bearish"}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Score)
	assert.Equal(t, models.SentimentBearish, s.Label)

	_, err = ParseSentimentReply([]byte("The outlook is bullish."))
	require.Error(t, err)
}

func TestSentimentWithoutHeadlines(t *testing.T) {
	a := NewHTTPSentimentAnalyzer(newTestBase(""), applogger.Nop())
	s, err := a.Analyze(context.Background(), "AAPL", nil)
	require.NoError(t, err)
	assert.Equal(t, models.NeutralSentiment("No headlines provided."), s)
}

func TestSentimentRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sentiment", r.URL.Path)
		var req sentimentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TSLA", req.Symbol)
		assert.Len(t, req.Headlines, 2)
		assert.Contains(t, req.Prompt, "2. Recall widens")

		_, _ = w.Write([]byte("```json\n{\"score\": -0.55, \"label\": \"Bearish\", \"breakdown\": \"Recall concerns dominate.\"}\n```"))
	}))
	defer srv.Close()

	a := NewHTTPSentimentAnalyzer(newTestBase(srv.URL), applogger.Nop())
	s, err := a.Analyze(context.Background(), "TSLA", []string{"Deliveries slip", "Recall widens"})
	require.NoError(t, err)
	assert.Equal(t, -0.55, s.Score)
	assert.Equal(t, models.SentimentBearish, s.Label)
	assert.Equal(t, "Recall concerns dominate.", s.Breakdown)
}

func TestSentimentFallsBackToKeywords(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewHTTPSentimentAnalyzer(newTestBase(srv.URL), applogger.Nop())
	s, err := a.Analyze(context.Background(), "AAPL", []string{"Apple shares surge to record profit"})
	require.NoError(t, err)
	assert.Equal(t, KeywordBreakdown, s.Breakdown)
	assert.InDelta(t, 0.36, s.Score, 1e-9)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSentimentClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewHTTPSentimentAnalyzer(newTestBase(srv.URL), applogger.Nop())
	s, err := a.Analyze(context.Background(), "AAPL", []string{"quiet day"})
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, s.Label)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNarrativeGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/narrative", r.URL.Path)
		var req narrativeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "NVDA", req.Symbol)
		assert.Equal(t, 80, req.MaxWords)
		assert.Contains(t, req.Prompt, "Symbol: NVDA")
		_, _ = w.Write([]byte(`{"text": "  Momentum favours buyers.  "}`))
	}))
	defer srv.Close()

	g := NewHTTPNarrativeGenerator(newTestBase(srv.URL))
	text, err := g.Generate(context.Background(), &models.PredictionReport{Symbol: "NVDA"})
	require.NoError(t, err)
	assert.Equal(t, "Momentum favours buyers.", text)
}

func TestNarrativeGeneratorErrors(t *testing.T) {
	_, err := NewHTTPNarrativeGenerator(newTestBase("")).Generate(context.Background(), &models.PredictionReport{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": ""}`))
	}))
	defer srv.Close()
	_, err = NewHTTPNarrativeGenerator(newTestBase(srv.URL)).Generate(context.Background(), &models.PredictionReport{Symbol: "AMD"})
	assert.ErrorIs(t, err, errEmptyNarrative)
}
