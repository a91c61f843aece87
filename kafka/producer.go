package kafka

import (
	"context"
	"encoding/json"
	"time"

	"queue-system/config"
	"queue-system/models"
	"queue-system/monitoring"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes queue and notification events. Publishing is
// fire-and-forget: a broker outage is logged and counted, never
// surfaced to the caller, because store writes are already committed.
type Producer struct {
	queueWriter  *kafka.Writer
	notifyWriter *kafka.Writer
	timeout      time.Duration
	logger       *zap.Logger
}

func NewProducer(cfg *config.Config, logger *zap.Logger) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		}
	}
	return &Producer{
		queueWriter:  newWriter(cfg.QueueTopic),
		notifyWriter: newWriter(cfg.NotifyTopic),
		timeout:      cfg.PublishTimeout,
		logger:       logger,
	}
}

func (p *Producer) PublishQueueEvent(ctx context.Context, event models.QueueEvent) {
	p.publish(ctx, p.queueWriter, event)
}

func (p *Producer) PublishNotificationEvent(ctx context.Context, event models.QueueEvent) {
	p.publish(ctx, p.notifyWriter, event)
}

func (p *Producer) publish(ctx context.Context, writer *kafka.Writer, event models.QueueEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event",
			zap.String("event_type", event.EventType),
			zap.Error(err))
		monitoring.TrackEventPublished(writer.Topic, "marshal_error")
		return
	}

	// Keying by entry keeps per-entry ordering within a partition.
	msg := kafka.Message{
		Key:   []byte(event.QueueEntryID),
		Value: data,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", writer.Topic),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		monitoring.TrackEventPublished(writer.Topic, "error")
		return
	}
	monitoring.TrackEventPublished(writer.Topic, "success")
}

func (p *Producer) Close() error {
	if err := p.queueWriter.Close(); err != nil {
		return err
	}
	return p.notifyWriter.Close()
}
