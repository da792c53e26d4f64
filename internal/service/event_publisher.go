package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// SeriesExtendedEventType is the event_type header of extension summaries.
const SeriesExtendedEventType = "class_series.extended"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventPublisher emits extension summaries to Kafka, keyed by series id.
type KafkaEventPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaEventPublisher builds a publisher over a hash-balanced writer. It returns nil when no
// brokers are configured, which callers treat as publishing disabled.
func NewKafkaEventPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaEventPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	})
	return newKafkaEventPublisher(writer, topic, logger)
}

func newKafkaEventPublisher(writer messageWriter, topic string, logger *zap.Logger) *KafkaEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaEventPublisher{writer: writer, topic: topic, logger: logger}
}

// PublishSeriesExtended writes one event carrying the W3C trace context of ctx.
func (p *KafkaEventPublisher) PublishSeriesExtended(ctx context.Context, event models.SeriesExtendedEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal series extended event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(event.EventID)},
		{Key: "event_type", Value: []byte(SeriesExtendedEventType)},
	}
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	msg := kafka.Message{
		Key:     []byte(event.SeriesID),
		Value:   payload,
		Headers: carrier.headers,
		Time:    event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", SeriesExtendedEventType, p.topic, err)
	}
	p.logger.Debug("series event published", zap.String("series_id", event.SeriesID), zap.String("event_id", event.EventID))
	return nil
}

// Close flushes pending messages.
func (p *KafkaEventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
