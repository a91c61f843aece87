package models

import "time"

// Inbound bus contracts (order lifecycle topics).

type OrderCreatedEvent struct {
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	UserName    string           `json:"user_name"`
	UserPhone   string           `json:"user_phone"`
	Items       []OrderEventItem `json:"items"`
	TotalAmount string           `json:"total_amount"`
	Priority    Priority         `json:"priority,omitempty"`
	IsExpress   bool             `json:"is_express,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type OrderEventItem struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// ItemCount sums item quantities; zero-quantity rows count as one.
func (e *OrderCreatedEvent) ItemCount() int {
	total := 0
	for _, item := range e.Items {
		if item.Quantity <= 0 {
			total++
			continue
		}
		total += item.Quantity
	}
	return total
}

type OrderStatusEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outbound bus contract (queue.events / notification.events topics).

const (
	EventEntryCreated    = "queue.entry.created"
	EventPositionUpdated = "queue.position.updated"
	EventStatusChanged   = "queue.status.changed"
	EventAlmostReady     = "queue.almost_ready"
	EventReady           = "queue.ready"
	EventCompleted       = "queue.completed"
	EventAdvanced        = "queue.advanced"
)

type QueueEvent struct {
	EventType          string     `json:"event_type"`
	QueueEntryID       string     `json:"queue_entry_id"`
	OrderID            string     `json:"order_id"`
	UserID             string     `json:"user_id"`
	TokenNumber        string     `json:"token_number"`
	Position           int        `json:"position,omitempty"`
	EstimatedWaitTime  int        `json:"estimated_wait_time,omitempty"`
	EstimatedReadyTime *time.Time `json:"estimated_ready_time,omitempty"`
	OldStatus          Status     `json:"old_status,omitempty"`
	Status             Status     `json:"status,omitempty"`
	NotificationType   string     `json:"notification_type,omitempty"`
	Timestamp          time.Time  `json:"timestamp"`
}

// NewQueueEvent fills the envelope fields shared by every outbound event.
func NewQueueEvent(eventType string, entry *QueueEntry) QueueEvent {
	return QueueEvent{
		EventType:          eventType,
		QueueEntryID:       entry.ID,
		OrderID:            entry.OrderID,
		UserID:             entry.UserID,
		TokenNumber:        entry.TokenNumber,
		Position:           entry.Position,
		EstimatedWaitTime:  entry.EstimatedWaitTime,
		EstimatedReadyTime: entry.EstimatedReadyTime,
		Status:             entry.Status,
		Timestamp:          time.Now().UTC(),
	}
}
