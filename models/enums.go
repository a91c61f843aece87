package models

import "queue-system/internal/status"

// Status is the canonical queue entry status. The same values are used
// in the store, the API payloads and the audit rows.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
	StatusExpired    Status = "EXPIRED"
)

// Priority orders entries within the queue. Higher rank wins.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
	PriorityVIP    Priority = "VIP"
)

// TokenType classifies the human-facing token.
type TokenType string

const (
	TokenRegular TokenType = "REGULAR"
	TokenExpress TokenType = "EXPRESS"
	TokenBulk    TokenType = "BULK"
	TokenSpecial TokenType = "SPECIAL"
	TokenStaff   TokenType = "STAFF"
)

// transitions lists the allowed moves of the entry state machine.
// Terminal statuses have no outgoing edges.
var transitions = map[Status][]Status{
	StatusWaiting:    {StatusInProgress, StatusCancelled, StatusNoShow, StatusExpired},
	StatusInProgress: {StatusReady, StatusCancelled},
	StatusReady:      {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusNoShow:     {},
	StatusExpired:    {},
}

// ValidateTransition rejects moves the state machine does not allow.
func ValidateTransition(from, to Status) error {
	allowed, ok := transitions[from]
	if !ok {
		return status.NewTransitionError(string(from), string(to))
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return status.NewTransitionError(string(from), string(to))
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsActive reports whether an entry in this status holds a queue position.
func (s Status) IsActive() bool {
	return s == StatusWaiting || s == StatusInProgress
}

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow, StatusExpired:
		return true
	}
	return false
}

// Rank maps a priority to a sortable weight. Unknown values rank as NORMAL
// so a malformed row never jumps the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	case PriorityVIP:
		return 4
	default:
		return 1
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent, PriorityVIP:
		return true
	}
	return false
}

func (t TokenType) IsValid() bool {
	switch t {
	case TokenRegular, TokenExpress, TokenBulk, TokenSpecial, TokenStaff:
		return true
	}
	return false
}

// Staff action kinds recorded in the action log.
const (
	ActionStartPreparation = "START_PREPARATION"
	ActionMarkReady        = "MARK_READY"
	ActionMarkCompleted    = "MARK_COMPLETED"
	ActionCancel           = "CANCEL"
	ActionReassign         = "REASSIGN"
	ActionAdjustPriority   = "ADJUST_PRIORITY"
	ActionAddNote          = "ADD_NOTE"
)

// ActionForStatus maps a status transition target to the logged action kind.
func ActionForStatus(s Status) string {
	switch s {
	case StatusInProgress:
		return ActionStartPreparation
	case StatusReady:
		return ActionMarkReady
	case StatusCompleted:
		return ActionMarkCompleted
	case StatusCancelled, StatusNoShow, StatusExpired:
		return ActionCancel
	default:
		return "MARK_" + string(s)
	}
}

// MapOrderStatus translates an upstream order status into a queue status.
// Unmapped statuses return "" and are ignored by the consumer.
func MapOrderStatus(orderStatus string) Status {
	switch orderStatus {
	case "CONFIRMED":
		return StatusWaiting
	case "PREPARING":
		return StatusInProgress
	case "READY":
		return StatusReady
	case "COMPLETED":
		return StatusCompleted
	case "CANCELLED", "FAILED":
		return StatusCancelled
	default:
		return ""
	}
}
