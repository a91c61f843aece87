package status

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("queue: invalid request")
	ErrNotFound            = errors.New("queue: entry not found")
	ErrDuplicateEntry      = errors.New("queue: order already in queue")
	ErrInvalidTransition   = errors.New("queue: invalid status transition")
	ErrQueueEmpty          = errors.New("queue: no entries in queue")
	ErrConcurrencyConflict = errors.New("queue: concurrent update conflict")
	ErrUpstreamUnavailable = errors.New("queue: upstream unavailable")
	ErrTokenSpaceExhausted = errors.New("token: daily token space exhausted")
)

// TransitionError reports a rejected state machine move. It wraps
// ErrInvalidTransition so callers can still match with errors.Is.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("queue: cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func NewTransitionError(from, to string) error {
	return &TransitionError{From: from, To: to}
}
