package repository

import (
	"context"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
)

// KafkaPublisher ships analysis events and aggregated error logs.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishAnalysis sends the event keyed by symbol, so one symbol's events stay ordered.
func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, ev models.AnalysisEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

// PublishMessage implements logger.Publisher.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishAnalysis(context.Context, models.AnalysisEvent) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaPublisher)(nil)
	_ domrepo.EventPublisher = NopPublisher{}
	_ applogger.Publisher    = (*KafkaPublisher)(nil)
)
