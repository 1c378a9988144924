package repository

import (
	"context"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
)

var _ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaReportPublisher emits each finished report keyed by symbol, so one
// symbol's reports stay ordered within a partition.
type KafkaReportPublisher struct {
	producer MessagePublisher
	topic    string
}

func NewKafkaReportPublisher(producer MessagePublisher, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) Publish(ctx context.Context, r *models.PredictionReport) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r)
}

func (p *KafkaReportPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.ReportPublisher = NopReportPublisher{}

// NopReportPublisher is used when Kafka is disabled.
type NopReportPublisher struct{}

func (NopReportPublisher) Publish(context.Context, *models.PredictionReport) error { return nil }
func (NopReportPublisher) Close() error                                          { return nil }
