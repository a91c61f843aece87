package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"queue-system/config"
	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/monitoring"
	"queue-system/services"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	topicOrderCreated       = "order.created"
	topicOrderStatusChanged = "order.status.changed"
)

// Consumer bridges the order lifecycle topics into scheduler calls.
// Offsets are committed only after the scheduler call succeeds or the
// message is classified as unprocessable, so transient failures replay.
type Consumer struct {
	reader *kafka.Reader
	queue  *services.QueueService
	logger *zap.Logger

	stopped sync.WaitGroup
}

func NewConsumer(cfg *config.Config, queue *services.QueueService, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.KafkaBrokers,
			GroupID:     cfg.KafkaGroupID,
			GroupTopics: cfg.OrderTopics,
			MinBytes:    1,
			MaxBytes:    10e6,
		}),
		queue:  queue,
		logger: logger,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	c.stopped.Add(1)
	go func() {
		defer c.stopped.Done()
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				c.logger.Error("failed to fetch message", zap.Error(err))
				continue
			}

			if err := c.handle(ctx, msg); err != nil {
				monitoring.TrackEventConsumed(msg.Topic, "error")
				c.logger.Error("failed to process message",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				// Leave the offset uncommitted so the message replays.
				continue
			}

			monitoring.TrackEventConsumed(msg.Topic, "success")
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("failed to commit offset", zap.Error(err))
			}
		}
	}()
}

func (c *Consumer) Stop() error {
	err := c.reader.Close()
	c.stopped.Wait()
	return err
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case topicOrderCreated:
		return c.handleOrderCreated(ctx, msg.Value)
	case topicOrderStatusChanged:
		return c.handleOrderStatusChanged(ctx, msg.Value)
	default:
		c.logger.Warn("message on unexpected topic", zap.String("topic", msg.Topic))
		return nil
	}
}

func (c *Consumer) handleOrderCreated(ctx context.Context, value []byte) error {
	var event models.OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.Warn("dropping malformed order.created event", zap.Error(err))
		return nil
	}

	menuItemIDs := make([]string, 0, len(event.Items))
	for _, item := range event.Items {
		menuItemIDs = append(menuItemIDs, item.MenuItemID)
	}

	req := &models.CreateQueueEntryRequest{
		OrderID:        event.OrderID,
		UserID:         event.UserID,
		UserName:       event.UserName,
		UserPhone:      event.UserPhone,
		Priority:       event.Priority,
		IsExpressQueue: event.IsExpress,
		ItemCount:      event.ItemCount(),
		MenuItemIDs:    menuItemIDs,
		TotalAmount:    event.TotalAmount,
	}

	entry, err := c.queue.CreateEntry(ctx, req)
	switch {
	case err == nil:
		c.logger.Info("entry created from order event",
			zap.String("order_id", event.OrderID),
			zap.String("token", entry.TokenNumber))
		return nil
	case errors.Is(err, status.ErrDuplicateEntry):
		// Redelivery; the entry already exists.
		c.logger.Debug("duplicate order event skipped", zap.String("order_id", event.OrderID))
		return nil
	case errors.Is(err, status.ErrValidation):
		c.logger.Warn("dropping invalid order.created event",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return nil
	default:
		return err
	}
}

func (c *Consumer) handleOrderStatusChanged(ctx context.Context, value []byte) error {
	var event models.OrderStatusEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.Warn("dropping malformed order.status.changed event", zap.Error(err))
		return nil
	}

	mapped := models.MapOrderStatus(event.Status)
	if mapped == "" {
		c.logger.Debug("ignoring unmapped order status",
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status))
		return nil
	}

	entry, err := c.queue.EntryByOrderID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			c.logger.Warn("status event for unknown order skipped",
				zap.String("order_id", event.OrderID))
			return nil
		}
		return err
	}

	if entry.Status == mapped {
		return nil
	}

	_, err = c.queue.UpdateStatus(ctx, entry.ID, &models.UpdateQueueStatusRequest{
		Status: mapped,
	}, services.SystemActorID, "System")
	switch {
	case err == nil:
		return nil
	case errors.Is(err, status.ErrInvalidTransition):
		// Out-of-order delivery; the entry already moved past this state.
		c.logger.Warn("ignoring out-of-order status event",
			zap.String("order_id", event.OrderID),
			zap.String("from", string(entry.Status)),
			zap.String("to", string(mapped)))
		return nil
	default:
		return err
	}
}
