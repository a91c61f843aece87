package utils

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"queue-system/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	entryKeyPrefix = "queue:entry:"
	snapshotKey    = "queue:snapshot"
)

// QueueCache is a write-through Redis cache for entries and the live
// queue snapshot. All failures degrade to the store; nothing here is
// authoritative.
type QueueCache struct {
	client      *redis.Client
	entryTTL    time.Duration
	snapshotTTL time.Duration
	logger      *zap.Logger
}

func NewQueueCache(client *redis.Client, entryTTL, snapshotTTL time.Duration, logger *zap.Logger) *QueueCache {
	return &QueueCache{
		client:      client,
		entryTTL:    entryTTL,
		snapshotTTL: snapshotTTL,
		logger:      logger,
	}
}

func entryKey(entryID string) string {
	return entryKeyPrefix + entryID
}

func (c *QueueCache) SetEntry(ctx context.Context, entry *models.QueueEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("failed to marshal entry for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, entryKey(entry.ID), data, c.entryTTL).Err(); err != nil {
		c.logger.Warn("failed to cache entry", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

// Entry returns the cached entry, or (nil, false) on miss or error.
func (c *QueueCache) Entry(ctx context.Context, entryID string) (*models.QueueEntry, bool) {
	data, err := c.client.Get(ctx, entryKey(entryID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var entry models.QueueEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt cache entry dropped", zap.String("entry_id", entryID), zap.Error(err))
		_ = c.client.Del(ctx, entryKey(entryID)).Err()
		return nil, false
	}
	return &entry, true
}

func (c *QueueCache) InvalidateEntry(ctx context.Context, entryID string) {
	if err := c.client.Del(ctx, entryKey(entryID)).Err(); err != nil {
		c.logger.Warn("failed to invalidate cached entry",
			zap.String("entry_id", entryID), zap.Error(err))
	}
}

func (c *QueueCache) Snapshot(ctx context.Context) (*models.CurrentQueueResponse, bool) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("snapshot cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var snapshot models.CurrentQueueResponse
	if err := json.Unmarshal(data, &snapshot); err != nil {
		_ = c.client.Del(ctx, snapshotKey).Err()
		return nil, false
	}
	return &snapshot, true
}

func (c *QueueCache) SetSnapshot(ctx context.Context, snapshot *models.CurrentQueueResponse) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Warn("failed to marshal snapshot for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, snapshotKey, data, c.snapshotTTL).Err(); err != nil {
		c.logger.Warn("failed to cache snapshot", zap.Error(err))
	}
}

func (c *QueueCache) InvalidateSnapshot(ctx context.Context) {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		c.logger.Warn("failed to invalidate snapshot", zap.Error(err))
	}
}
