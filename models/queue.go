package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueueEntry is one ticket in the line. Pointer fields map to nullable
// columns; the db tags drive dbx struct scanning.
type QueueEntry struct {
	ID                         string     `db:"id" json:"id"`
	OrderID                    string     `db:"order_id" json:"order_id"`
	UserID                     string     `db:"user_id" json:"user_id"`
	UserName                   *string    `db:"user_name" json:"user_name,omitempty"`
	UserPhone                  *string    `db:"user_phone" json:"user_phone,omitempty"`
	TokenNumber                string     `db:"token_number" json:"token_number"`
	TokenType                  TokenType  `db:"token_type" json:"token_type"`
	Status                     Status     `db:"status" json:"status"`
	Priority                   Priority   `db:"priority" json:"priority"`
	Position                   int        `db:"position" json:"position"`
	EstimatedWaitTime          int        `db:"estimated_wait_time" json:"estimated_wait_time"`
	EstimatedReadyTime         *time.Time `db:"estimated_ready_time" json:"estimated_ready_time,omitempty"`
	ActualStartTime            *time.Time `db:"actual_start_time" json:"actual_start_time,omitempty"`
	ActualReadyTime            *time.Time `db:"actual_ready_time" json:"actual_ready_time,omitempty"`
	ActualCompletionTime       *time.Time `db:"actual_completion_time" json:"actual_completion_time,omitempty"`
	AssignedCounter            *string    `db:"assigned_counter" json:"assigned_counter,omitempty"`
	AssignedStaff              *string    `db:"assigned_staff" json:"assigned_staff,omitempty"`
	AssignedStaffName          *string    `db:"assigned_staff_name" json:"assigned_staff_name,omitempty"`
	AverageItemPreparationTime *int       `db:"average_item_preparation_time" json:"average_item_preparation_time,omitempty"`
	IsExpressQueue             bool       `db:"is_express_queue" json:"is_express_queue"`
	SpecialHandling            *string    `db:"special_handling" json:"special_handling,omitempty"`
	Notes                      *string    `db:"notes" json:"notes,omitempty"`
	TotalAmount                *string    `db:"total_amount" json:"total_amount,omitempty"`
	CreatedAt                  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time  `db:"updated_at" json:"updated_at"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}

// OrderTotal parses the stored order total. Zero when absent.
func (e *QueueEntry) OrderTotal() decimal.Decimal {
	if e.TotalAmount == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*e.TotalAmount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// QueueConfiguration is the singleton set of tunables. Every update
// triggers a full recalculation of active entry estimates.
type QueueConfiguration struct {
	ID                               string    `db:"id" json:"id"`
	MaxConcurrentOrders              int       `db:"max_concurrent_orders" json:"max_concurrent_orders"`
	AvgPreparationTimePerItem        int       `db:"avg_preparation_time_per_item" json:"avg_preparation_time_per_item"`
	BufferTime                       int       `db:"buffer_time" json:"buffer_time"`
	ExpressQueueEnabled              bool      `db:"express_queue_enabled" json:"express_queue_enabled"`
	ExpressQueueMaxItems             int       `db:"express_queue_max_items" json:"express_queue_max_items"`
	MaxWaitTimeAlert                 int       `db:"max_wait_time_alert" json:"max_wait_time_alert"`
	TokenExpiryTime                  int       `db:"token_expiry_time" json:"token_expiry_time"`
	AutoNotificationEnabled          bool      `db:"auto_notification_enabled" json:"auto_notification_enabled"`
	NotificationPositionThreshold    int       `db:"notification_position_threshold" json:"notification_position_threshold"`
	NotificationAlmostReadyThreshold int       `db:"notification_almost_ready_threshold" json:"notification_almost_ready_threshold"`
	UpdatedAt                        time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy                        *string   `db:"updated_by" json:"updated_by,omitempty"`
}

func (QueueConfiguration) TableName() string {
	return "queue_configuration"
}

// PriorityMultiplier scales wait estimates per priority level. The table
// is stored and served through the admin API but is not applied inside
// the wait formula.
type PriorityMultiplier struct {
	ID         string   `db:"id" json:"id"`
	Priority   Priority `db:"priority" json:"priority"`
	Multiplier float64  `db:"multiplier" json:"multiplier"`
}

func (PriorityMultiplier) TableName() string {
	return "queue_priority_multipliers"
}

// PositionHistory is the append-only audit row written for every position
// or status delta of an entry.
type PositionHistory struct {
	ID                 string     `db:"id" json:"id"`
	QueueEntryID       string     `db:"queue_entry_id" json:"queue_entry_id"`
	OldPosition        int        `db:"old_position" json:"old_position"`
	NewPosition        int        `db:"new_position" json:"new_position"`
	OldStatus          Status     `db:"old_status" json:"old_status"`
	NewStatus          Status     `db:"new_status" json:"new_status"`
	EstimatedWaitTime  *int       `db:"estimated_wait_time" json:"estimated_wait_time,omitempty"`
	EstimatedReadyTime *time.Time `db:"estimated_ready_time" json:"estimated_ready_time,omitempty"`
	Reason             *string    `db:"reason" json:"reason,omitempty"`
	Timestamp          time.Time  `db:"timestamp" json:"timestamp"`
}

func (PositionHistory) TableName() string {
	return "queue_position_history"
}

// StaffActionLog is the append-only accountability record for every
// staff-initiated mutation.
type StaffActionLog struct {
	ID           string    `db:"id" json:"id"`
	QueueEntryID string    `db:"queue_entry_id" json:"queue_entry_id"`
	StaffID      string    `db:"staff_id" json:"staff_id"`
	StaffName    *string   `db:"staff_name" json:"staff_name,omitempty"`
	Action       string    `db:"action" json:"action"`
	OldStatus    *string   `db:"old_status" json:"old_status,omitempty"`
	NewStatus    *string   `db:"new_status" json:"new_status,omitempty"`
	OldPriority  *string   `db:"old_priority" json:"old_priority,omitempty"`
	NewPriority  *string   `db:"new_priority" json:"new_priority,omitempty"`
	Note         *string   `db:"note" json:"note,omitempty"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
}

func (StaffActionLog) TableName() string {
	return "staff_queue_actions_log"
}

// DailyStatistics is the derived per-day rollup. Never a source of truth.
type DailyStatistics struct {
	ID                   string    `db:"id" json:"id"`
	Date                 string    `db:"date" json:"date"`
	TotalInQueue         int       `db:"total_in_queue" json:"total_in_queue"`
	WaitingCount         int       `db:"waiting_count" json:"waiting_count"`
	InProgressCount      int       `db:"in_progress_count" json:"in_progress_count"`
	ReadyCount           int       `db:"ready_count" json:"ready_count"`
	CompletedToday       int       `db:"completed_today" json:"completed_today"`
	CancelledToday       int       `db:"cancelled_today" json:"cancelled_today"`
	NoShowToday          int       `db:"no_show_today" json:"no_show_today"`
	ExpiredToday         int       `db:"expired_today" json:"expired_today"`
	AvgWaitTime          int       `db:"avg_wait_time" json:"avg_wait_time"`
	AvgPreparationTime   int       `db:"avg_preparation_time" json:"avg_preparation_time"`
	LongestWaitTime      int       `db:"longest_wait_time" json:"longest_wait_time"`
	ShortestWaitTime     int       `db:"shortest_wait_time" json:"shortest_wait_time"`
	CurrentLoad          float64   `db:"current_load" json:"current_load"`
	PeakLoad             float64   `db:"peak_load" json:"peak_load"`
	PeakLoadTime         *string   `db:"peak_load_time" json:"peak_load_time,omitempty"`
	OnTimeCompletionRate float64   `db:"on_time_completion_rate" json:"on_time_completion_rate"`
	NoShowRate           float64   `db:"no_show_rate" json:"no_show_rate"`
	Revenue              string    `db:"revenue" json:"revenue"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

func (DailyStatistics) TableName() string {
	return "queue_statistics"
}

// HourlyStatistics is the per-hour rollup used by load displays.
type HourlyStatistics struct {
	ID                 string    `db:"id" json:"id"`
	Date               string    `db:"date" json:"date"`
	Hour               int       `db:"hour" json:"hour"`
	OrderCount         int       `db:"order_count" json:"order_count"`
	AvgWaitTime        int       `db:"avg_wait_time" json:"avg_wait_time"`
	AvgPreparationTime int       `db:"avg_preparation_time" json:"avg_preparation_time"`
	CompletedCount     int       `db:"completed_count" json:"completed_count"`
	CancelledCount     int       `db:"cancelled_count" json:"cancelled_count"`
	PeakPosition       int       `db:"peak_position" json:"peak_position"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

func (HourlyStatistics) TableName() string {
	return "queue_hourly_statistics"
}

// TokenCounter is the single point of contention for token issuance,
// one row per calendar day.
type TokenCounter struct {
	ID            string    `db:"id" json:"id"`
	Date          string    `db:"date" json:"date"`
	CurrentNumber int       `db:"current_number" json:"current_number"`
	Prefix        string    `db:"prefix" json:"prefix"`
	LastResetAt   time.Time `db:"last_reset_at" json:"last_reset_at"`
}

func (TokenCounter) TableName() string {
	return "queue_token_counter"
}
