package services

import (
	"fmt"

	"queue-system/models"

	pubnub "github.com/pubnub/go/v7"
	"go.uber.org/zap"
)

// Notifier pushes realtime updates to a user's personal channel. Failures
// are logged and dropped; the store remains the recovery point.
type Notifier interface {
	NotifyPosition(entry *models.QueueEntry)
	NotifyStatus(entry *models.QueueEntry, message string)
}

// PubNubNotifier publishes to per-user channels ("user-<id>").
type PubNubNotifier struct {
	pn     *pubnub.PubNub
	logger *zap.Logger
}

func NewPubNubNotifier(pn *pubnub.PubNub, logger *zap.Logger) *PubNubNotifier {
	return &PubNubNotifier{pn: pn, logger: logger}
}

// ShouldNotifyPosition throttles position pushes: entries near the front
// hear about every change, the back of the line only periodically.
func ShouldNotifyPosition(position int) bool {
	switch {
	case position <= 5:
		return true
	case position <= 20:
		return position%2 == 0
	case position <= 100:
		return position%10 == 0
	default:
		return position%50 == 0
	}
}

func positionMessage(position int) string {
	switch {
	case position == 1:
		return "You're next!"
	case position <= 5:
		return fmt.Sprintf("Almost there! You're #%d", position)
	default:
		return fmt.Sprintf("You are #%d in line", position)
	}
}

func (n *PubNubNotifier) NotifyPosition(entry *models.QueueEntry) {
	n.publish(entry.UserID, map[string]any{
		"type":                "queue_position",
		"token_number":        entry.TokenNumber,
		"position":            entry.Position,
		"estimated_wait_time": entry.EstimatedWaitTime,
		"message":             positionMessage(entry.Position),
	})
}

func (n *PubNubNotifier) NotifyStatus(entry *models.QueueEntry, message string) {
	n.publish(entry.UserID, map[string]any{
		"type":         "queue_status",
		"token_number": entry.TokenNumber,
		"status":       entry.Status,
		"message":      message,
	})
}

func (n *PubNubNotifier) publish(userID string, message map[string]any) {
	channel := fmt.Sprintf("user-%s", userID)
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		n.logger.Warn("pubnub publish failed",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

// NopNotifier is used when PubNub keys are not configured and in tests.
type NopNotifier struct{}

func (NopNotifier) NotifyPosition(*models.QueueEntry)       {}
func (NopNotifier) NotifyStatus(*models.QueueEntry, string) {}
