package models

import "time"

// CreateQueueEntryRequest creates a new queue entry for an order.
type CreateQueueEntryRequest struct {
	OrderID         string    `json:"order_id"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	UserPhone       string    `json:"user_phone"`
	TokenType       TokenType `json:"token_type"`
	Priority        Priority  `json:"priority"`
	IsExpressQueue  bool      `json:"is_express_queue"`
	SpecialHandling string    `json:"special_handling"`
	ItemCount       int       `json:"item_count"`
	MenuItemIDs     []string  `json:"menu_item_ids"`
	TotalAmount     string    `json:"total_amount"`
}

// UpdateQueueStatusRequest moves an entry through the state machine.
type UpdateQueueStatusRequest struct {
	Status          Status  `json:"status"`
	AssignedCounter *string `json:"assigned_counter"`
	AssignedStaff   *string `json:"assigned_staff"`
	Notes           *string `json:"notes"`
	Reason          *string `json:"reason"`
}

type UpdateQueuePriorityRequest struct {
	Priority Priority `json:"priority"`
	Reason   *string  `json:"reason"`
}

type AssignStaffRequest struct {
	StaffID   string  `json:"staff_id"`
	StaffName string  `json:"staff_name"`
	Counter   *string `json:"counter"`
}

type AddNoteRequest struct {
	Note string `json:"note"`
}

// QueuePositionResponse is the public token-lookup payload.
type QueuePositionResponse struct {
	QueueEntry         *QueueEntry `json:"queue_entry"`
	Position           int         `json:"position"`
	EstimatedWaitTime  int         `json:"estimated_wait_time"`
	EstimatedReadyTime *time.Time  `json:"estimated_ready_time,omitempty"`
	PeopleAhead        int         `json:"people_ahead"`
}

// CurrentQueueResponse is the live display snapshot.
type CurrentQueueResponse struct {
	Waiting     []QueueEntry `json:"waiting"`
	InProgress  []QueueEntry `json:"in_progress"`
	Ready       []QueueEntry `json:"ready"`
	TotalActive int          `json:"total_active"`
}

type QueueStatsResponse struct {
	Date                 string  `json:"date"`
	TotalInQueue         int     `json:"total_in_queue"`
	WaitingCount         int     `json:"waiting_count"`
	InProgressCount      int     `json:"in_progress_count"`
	ReadyCount           int     `json:"ready_count"`
	CompletedToday       int     `json:"completed_today"`
	CancelledToday       int     `json:"cancelled_today"`
	AvgWaitTime          int     `json:"avg_wait_time"`
	AvgPreparationTime   int     `json:"avg_preparation_time"`
	CurrentLoad          float64 `json:"current_load"`
	OnTimeCompletionRate float64 `json:"on_time_completion_rate"`
	Revenue              string  `json:"revenue"`
}

type UpdateConfigurationRequest struct {
	MaxConcurrentOrders              *int  `json:"max_concurrent_orders"`
	AvgPreparationTimePerItem        *int  `json:"avg_preparation_time_per_item"`
	BufferTime                       *int  `json:"buffer_time"`
	ExpressQueueEnabled              *bool `json:"express_queue_enabled"`
	ExpressQueueMaxItems             *int  `json:"express_queue_max_items"`
	MaxWaitTimeAlert                 *int  `json:"max_wait_time_alert"`
	TokenExpiryTime                  *int  `json:"token_expiry_time"`
	AutoNotificationEnabled          *bool `json:"auto_notification_enabled"`
	NotificationPositionThreshold    *int  `json:"notification_position_threshold"`
	NotificationAlmostReadyThreshold *int  `json:"notification_almost_ready_threshold"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
