package utils

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"queue-system/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*QueueCache, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	cache := NewQueueCache(client, time.Hour, 5*time.Second, zap.NewNop())
	return cache, mock
}

func cachedEntry() *models.QueueEntry {
	return &models.QueueEntry{
		ID:          "entry-1",
		OrderID:     "order-1",
		UserID:      "user-1",
		TokenNumber: "A001",
		Status:      models.StatusWaiting,
		Priority:    models.PriorityNormal,
		Position:    1,
	}
}

func TestQueueCache_SetAndGetEntry(t *testing.T) {
	cache, mock := newTestCache(t)
	entry := cachedEntry()

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	mock.ExpectSet("queue:entry:entry-1", data, time.Hour).SetVal("OK")
	cache.SetEntry(context.Background(), entry)

	mock.ExpectGet("queue:entry:entry-1").SetVal(string(data))
	got, ok := cache.Entry(context.Background(), "entry-1")
	require.True(t, ok)
	assert.Equal(t, entry.TokenNumber, got.TokenNumber)
	assert.Equal(t, entry.Position, got.Position)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueCache_EntryMiss(t *testing.T) {
	cache, mock := newTestCache(t)

	mock.ExpectGet("queue:entry:missing").RedisNil()
	_, ok := cache.Entry(context.Background(), "missing")
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueCache_CorruptEntryDropped(t *testing.T) {
	cache, mock := newTestCache(t)

	mock.ExpectGet("queue:entry:bad").SetVal("{not json")
	mock.ExpectDel("queue:entry:bad").SetVal(1)

	_, ok := cache.Entry(context.Background(), "bad")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueCache_InvalidateEntry(t *testing.T) {
	cache, mock := newTestCache(t)

	mock.ExpectDel("queue:entry:entry-1").SetVal(1)
	cache.InvalidateEntry(context.Background(), "entry-1")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueCache_SnapshotRoundTrip(t *testing.T) {
	cache, mock := newTestCache(t)

	snapshot := &models.CurrentQueueResponse{
		Waiting:     []models.QueueEntry{*cachedEntry()},
		TotalActive: 1,
	}
	data, err := json.Marshal(snapshot)
	require.NoError(t, err)

	mock.ExpectSet("queue:snapshot", data, 5*time.Second).SetVal("OK")
	cache.SetSnapshot(context.Background(), snapshot)

	mock.ExpectGet("queue:snapshot").SetVal(string(data))
	got, ok := cache.Snapshot(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, got.TotalActive)
	require.Len(t, got.Waiting, 1)

	mock.ExpectDel("queue:snapshot").SetVal(1)
	cache.InvalidateSnapshot(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueCache_SnapshotMiss(t *testing.T) {
	cache, mock := newTestCache(t)

	mock.ExpectGet("queue:snapshot").RedisNil()
	_, ok := cache.Snapshot(context.Background())
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
