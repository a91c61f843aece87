package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"queue-system/internal/status"
	"queue-system/models"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "queue.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Seed(&models.QueueConfiguration{
		MaxConcurrentOrders:       10,
		AvgPreparationTimePerItem: 5,
		BufferTime:                2,
		ExpressQueueEnabled:       true,
		ExpressQueueMaxItems:      3,
		TokenExpiryTime:           60,
	}))
	return s
}

func newEntry(orderID string, position int) *models.QueueEntry {
	now := time.Now().UTC()
	return &models.QueueEntry{
		ID:                uuid.New().String(),
		OrderID:           orderID,
		UserID:            "user-1",
		TokenNumber:       fmt.Sprintf("A%03d", position),
		TokenType:         models.TokenRegular,
		Status:            models.StatusWaiting,
		Priority:          models.PriorityNormal,
		Position:          position,
		EstimatedWaitTime: position*5 + 2,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestSeed_Idempotent(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Configuration()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxConcurrentOrders)

	// Second seed must not overwrite or duplicate.
	require.NoError(t, s.Seed(&models.QueueConfiguration{MaxConcurrentOrders: 99}))
	cfg, err = s.Configuration()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxConcurrentOrders)

	multipliers, err := s.Multipliers()
	require.NoError(t, err)
	assert.Len(t, multipliers, 5)
}

func TestEntryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	entry := newEntry("order-1", 1)
	require.NoError(t, s.CreateEntry(entry))

	byID, err := s.EntryByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.OrderID, byID.OrderID)
	assert.Equal(t, models.StatusWaiting, byID.Status)

	byToken, err := s.EntryByToken(entry.TokenNumber)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byToken.ID)

	byOrder, err := s.EntryByOrderID("order-1")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byOrder.ID)
}

func TestEntryNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.EntryByID("missing")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = s.EntryByToken("Z999")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	err = s.UpdateEntry("missing", dbx.Params{"notes": "x"})
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestDuplicateOrderRejected(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateEntry(newEntry("order-1", 1)))

	dup := newEntry("order-1", 2)
	assert.Error(t, s.CreateEntry(dup))
}

func TestActiveEntriesAndPositions(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.CreateEntry(newEntry(fmt.Sprintf("order-%d", i), i)))
	}
	done := newEntry("order-done", 0)
	done.Status = models.StatusCompleted
	done.TokenNumber = "A999"
	require.NoError(t, s.CreateEntry(done))

	active, err := s.ActiveEntries()
	require.NoError(t, err)
	require.Len(t, active, 3)
	for i, e := range active {
		assert.Equal(t, i+1, e.Position)
	}

	max, err := s.MaxActivePosition()
	require.NoError(t, err)
	assert.Equal(t, 3, max)

	ahead, err := s.CountActiveAhead(3)
	require.NoError(t, err)
	assert.Equal(t, 2, ahead)
}

func TestMaxActivePosition_EmptyQueue(t *testing.T) {
	s := newTestStore(t)

	max, err := s.MaxActivePosition()
	require.NoError(t, err)
	assert.Equal(t, 0, max)
}

func TestApplyPositionUpdates_WritesHistory(t *testing.T) {
	s := newTestStore(t)

	entry := newEntry("order-1", 5)
	require.NoError(t, s.CreateEntry(entry))

	moved := *entry
	moved.Position = 1
	moved.EstimatedWaitTime = 7

	reason := "slot freed by COMPLETED"
	require.NoError(t, s.ApplyPositionUpdates([]PositionUpdate{
		{Entry: moved, OldPosition: 5, OldWait: 27},
	}, &reason))

	updated, err := s.EntryByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Position)
	assert.Equal(t, 7, updated.EstimatedWaitTime)

	history, err := s.HistoryForEntry(entry.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 5, history[0].OldPosition)
	assert.Equal(t, 1, history[0].NewPosition)
	require.NotNil(t, history[0].Reason)
	assert.Equal(t, reason, *history[0].Reason)
}

func TestApplyPositionUpdates_SkipsDepartedEntries(t *testing.T) {
	s := newTestStore(t)

	entry := newEntry("order-1", 3)
	require.NoError(t, s.CreateEntry(entry))

	// The entry completes between the position snapshot and the write.
	require.NoError(t, s.UpdateEntry(entry.ID, dbx.Params{
		"status":   string(models.StatusCompleted),
		"position": 0,
	}))

	stale := *entry
	stale.Position = 2
	reason := "slot freed by COMPLETED"
	require.NoError(t, s.ApplyPositionUpdates([]PositionUpdate{
		{Entry: stale, OldPosition: 3, OldWait: 17},
	}, &reason))

	updated, err := s.EntryByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, 0, updated.Position)

	history, err := s.HistoryForEntry(entry.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNextToken_Sequence(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 5; i++ {
		prefix, number, err := s.NextToken("2025-06-01")
		require.NoError(t, err)
		assert.Equal(t, "A", prefix)
		assert.Equal(t, i, number)
	}

	// A new day starts its own counter.
	prefix, number, err := s.NextToken("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, "A", prefix)
	assert.Equal(t, 1, number)
}

func TestNextToken_PrefixRollover(t *testing.T) {
	s := newTestStore(t)

	day := "2025-06-01"
	var prefix string
	var number int
	var err error
	for i := 0; i < 999; i++ {
		prefix, number, err = s.NextToken(day)
		require.NoError(t, err)
	}
	assert.Equal(t, "A", prefix)
	assert.Equal(t, 999, number)

	prefix, number, err = s.NextToken(day)
	require.NoError(t, err)
	assert.Equal(t, "B", prefix)
	assert.Equal(t, 1, number)
}

func TestStaleWaitingEntries(t *testing.T) {
	s := newTestStore(t)

	old := newEntry("order-old", 1)
	old.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, s.CreateEntry(old))

	fresh := newEntry("order-fresh", 2)
	fresh.TokenNumber = "A002"
	require.NoError(t, s.CreateEntry(fresh))

	stale, err := s.StaleWaitingEntries(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "order-old", stale[0].OrderID)
}

func TestUpsertDailyStatistics_Idempotent(t *testing.T) {
	s := newTestStore(t)

	date := "2025-06-01"
	first := &models.DailyStatistics{
		Date:           date,
		CompletedToday: 3,
		PeakLoad:       0.8,
		Revenue:        "100",
	}
	require.NoError(t, s.UpsertDailyStatistics(first))

	// Recompute with a lower instantaneous load; the peak watermark holds.
	second := &models.DailyStatistics{
		Date:           date,
		CompletedToday: 4,
		PeakLoad:       0.3,
		Revenue:        "150",
	}
	require.NoError(t, s.UpsertDailyStatistics(second))

	stored, err := s.DailyStatisticsFor(date)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, 4, stored.CompletedToday)
	assert.Equal(t, 0.8, stored.PeakLoad)
	assert.Equal(t, "150", stored.Revenue)
}

func TestUpsertHourlyStatistics_PreservesPeakPosition(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertHourlyStatistics(&models.HourlyStatistics{
		Date: "2025-06-01", Hour: 12, OrderCount: 5, PeakPosition: 9,
	}))
	require.NoError(t, s.UpsertHourlyStatistics(&models.HourlyStatistics{
		Date: "2025-06-01", Hour: 12, OrderCount: 7, PeakPosition: 4,
	}))

	stored, err := s.HourlyStatisticsFor("2025-06-01", 12)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.OrderCount)
	assert.Equal(t, 9, stored.PeakPosition)
}

func TestLogStaffAction_AppendOnly(t *testing.T) {
	s := newTestStore(t)

	entry := newEntry("order-1", 1)
	require.NoError(t, s.CreateEntry(entry))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.LogStaffAction(&models.StaffActionLog{
			QueueEntryID: entry.ID,
			StaffID:      "staff-1",
			Action:       models.ActionAddNote,
		}))
	}

	actions, err := s.ActionsForEntry(entry.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 3)
}
