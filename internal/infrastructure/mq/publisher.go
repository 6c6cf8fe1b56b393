package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"emergency-fund/internal/config"
	"emergency-fund/internal/core/domain"
	"emergency-fund/internal/core/services"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes lifecycle events as JSON keyed by demand id, so
// every event of one demand lands on the same partition in order
type KafkaPublisher struct {
	writer MessageWriter
}

var _ services.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to cfg.Topic
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           5 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

// NewKafkaPublisherWithWriter wraps an existing writer
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish writes one event
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := event.DemandID
	if key == "" {
		key = event.ContractID
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	})
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured
type NopPublisher struct{}

// Publish logs the event at debug level
func (NopPublisher) Publish(_ context.Context, event domain.Event) error {
	zap.L().Debug("lifecycle event",
		zap.String("type", string(event.Type)),
		zap.String("demand_id", event.DemandID),
		zap.String("contract_id", event.ContractID))
	return nil
}

// Close does nothing
func (NopPublisher) Close() error {
	return nil
}

// Publisher is an event publisher that owns a connection
type Publisher interface {
	services.EventPublisher
	Close() error
}

// NewPublisher picks Kafka when brokers are configured
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if !cfg.Enabled() {
		zap.L().Info("kafka not configured, lifecycle events are not published")
		return NopPublisher{}
	}
	zap.L().Info("kafka publisher ready", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return NewKafkaPublisher(cfg)
}

// Fanout publishes every event to each publisher in order. All publishers are
// attempted; their errors are joined.
type Fanout []services.EventPublisher

// Publish forwards the event to every publisher
func (f Fanout) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
