package models

import (
	"errors"
	"testing"

	"queue-system/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition_AllowedMoves(t *testing.T) {
	allowed := []struct {
		from Status
		to   Status
	}{
		{StatusWaiting, StatusInProgress},
		{StatusWaiting, StatusCancelled},
		{StatusWaiting, StatusNoShow},
		{StatusWaiting, StatusExpired},
		{StatusInProgress, StatusReady},
		{StatusInProgress, StatusCancelled},
		{StatusReady, StatusCompleted},
		{StatusReady, StatusCancelled},
	}
	for _, tc := range allowed {
		assert.NoError(t, ValidateTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidateTransition_RejectsSkipsAndReversals(t *testing.T) {
	rejected := []struct {
		from Status
		to   Status
	}{
		{StatusWaiting, StatusReady},
		{StatusWaiting, StatusCompleted},
		{StatusInProgress, StatusWaiting},
		{StatusInProgress, StatusCompleted},
		{StatusReady, StatusWaiting},
		{StatusReady, StatusInProgress},
	}
	for _, tc := range rejected {
		err := ValidateTransition(tc.from, tc.to)
		require.Error(t, err, "%s -> %s", tc.from, tc.to)
		assert.True(t, errors.Is(err, status.ErrInvalidTransition))
	}
}

func TestValidateTransition_TerminalStatesAreFinal(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusCancelled, StatusNoShow, StatusExpired}
	targets := []Status{StatusWaiting, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled}

	for _, from := range terminals {
		assert.True(t, from.IsTerminal())
		for _, to := range targets {
			if from == to {
				continue
			}
			err := ValidateTransition(from, to)
			assert.True(t, errors.Is(err, status.ErrInvalidTransition), "%s -> %s", from, to)
		}
	}
}

func TestPriorityRank_Ordering(t *testing.T) {
	assert.Greater(t, PriorityVIP.Rank(), PriorityUrgent.Rank())
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityNormal.Rank())
	assert.Greater(t, PriorityNormal.Rank(), PriorityLow.Rank())

	// Unknown values never jump the queue.
	assert.Equal(t, PriorityNormal.Rank(), Priority("GARBAGE").Rank())
}

func TestMapOrderStatus(t *testing.T) {
	assert.Equal(t, StatusWaiting, MapOrderStatus("CONFIRMED"))
	assert.Equal(t, StatusInProgress, MapOrderStatus("PREPARING"))
	assert.Equal(t, StatusReady, MapOrderStatus("READY"))
	assert.Equal(t, StatusCompleted, MapOrderStatus("COMPLETED"))
	assert.Equal(t, StatusCancelled, MapOrderStatus("CANCELLED"))
	assert.Equal(t, StatusCancelled, MapOrderStatus("FAILED"))
	assert.Equal(t, Status(""), MapOrderStatus("PENDING"))
	assert.Equal(t, Status(""), MapOrderStatus(""))
}

func TestActionForStatus(t *testing.T) {
	assert.Equal(t, ActionStartPreparation, ActionForStatus(StatusInProgress))
	assert.Equal(t, ActionMarkReady, ActionForStatus(StatusReady))
	assert.Equal(t, ActionMarkCompleted, ActionForStatus(StatusCompleted))
	assert.Equal(t, ActionCancel, ActionForStatus(StatusCancelled))
	assert.Equal(t, ActionCancel, ActionForStatus(StatusNoShow))
	assert.Equal(t, ActionCancel, ActionForStatus(StatusExpired))
}

func TestOrderCreatedEvent_ItemCount(t *testing.T) {
	event := OrderCreatedEvent{
		Items: []OrderEventItem{
			{MenuItemID: "a", Quantity: 2},
			{MenuItemID: "b", Quantity: 0},
			{MenuItemID: "c", Quantity: 3},
		},
	}
	assert.Equal(t, 6, event.ItemCount())
	assert.Equal(t, 0, (&OrderCreatedEvent{}).ItemCount())
}

func TestQueueEntry_OrderTotal(t *testing.T) {
	amount := "45.50"
	entry := &QueueEntry{TotalAmount: &amount}
	assert.Equal(t, "45.5", entry.OrderTotal().String())

	assert.True(t, (&QueueEntry{}).OrderTotal().IsZero())

	bad := "not-a-number"
	assert.True(t, (&QueueEntry{TotalAmount: &bad}).OrderTotal().IsZero())
}
