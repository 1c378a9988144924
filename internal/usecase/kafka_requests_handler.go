package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"FinCast/internal/domain/models"
	pkgkafka "FinCast/pkg/kafka"
)

var _ pkgkafka.MessageHandler = (*KafkaAnalyzeRequestsHandler)(nil)

// KafkaAnalyzeRequestsHandler runs an analysis for every message on the
// requests topic. Results leave through the use case's publisher.
type KafkaAnalyzeRequestsHandler struct {
	topic string
	uc    *PredictionUseCase
}

func NewKafkaAnalyzeRequestsHandler(topic string, uc *PredictionUseCase) *KafkaAnalyzeRequestsHandler {
	return &KafkaAnalyzeRequestsHandler{topic: topic, uc: uc}
}

func (h *KafkaAnalyzeRequestsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, days?, headlines?, requestId?}
func (h *KafkaAnalyzeRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		models.AnalyzeRequest
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.uc.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode analyze request: %w", err))
	}
	if m.RequestID == "" {
		m.RequestID = pkgkafka.RequestIDFromContext(ctx)
	}

	_, err := h.uc.Analyze(ctx, AnalyzeParams{
		Symbol:    m.Symbol,
		Days:      m.Days,
		Headlines: m.Headlines,
		RequestID: m.RequestID,
	})
	if errors.Is(err, ErrInvalidSymbol) || errors.Is(err, ErrNoPriceData) {
		return pkgkafka.Permanent(err)
	}
	return err
}
