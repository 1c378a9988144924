package analytics

import (
	"context"
	"errors"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/service/metrics"
	"FinCast/internal/services/narrative"
)

var _ domsvc.NarrativeGenerator = (*HTTPNarrativeGenerator)(nil)

var errEmptyNarrative = errors.New("narrative service returned empty text")

// HTTPNarrativeGenerator requests the analyst note from the remote narrative
// service. Callers fall back to narrative.Template on error.
type HTTPNarrativeGenerator struct {
	base *HTTPServiceBase
}

func NewHTTPNarrativeGenerator(base *HTTPServiceBase) *HTTPNarrativeGenerator {
	return &HTTPNarrativeGenerator{base: base}
}

type narrativeRequest struct {
	Symbol   string `json:"symbol"`
	Prompt   string `json:"prompt"`
	MaxWords int    `json:"maxWords"`
}

type narrativeResponse struct {
	Text string `json:"text"`
}

func (g *HTTPNarrativeGenerator) Generate(ctx context.Context, report *models.PredictionReport) (string, error) {
	if !g.base.Configured() {
		return "", ErrNotConfigured
	}
	start := time.Now()
	var resp narrativeResponse
	err := g.base.PostJSONWithRetry(ctx, "/v1/narrative", narrativeRequest{
		Symbol:   report.Symbol,
		Prompt:   narrative.Prompt(report),
		MaxWords: narrative.MaxWords,
	}, &resp)
	text := strings.TrimSpace(resp.Text)
	if err == nil && text == "" {
		err = errEmptyNarrative
	}
	metrics.ObserveCall(metrics.UpstreamNarrative, start, err)
	if err != nil {
		return "", err
	}
	return text, nil
}
