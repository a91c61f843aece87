package services

import (
	"sort"
	"time"

	"queue-system/models"
	"queue-system/store"
)

// EstimatedWaitMinutes derives an entry's wait from its queue position.
// The priority multiplier table is intentionally not applied here; see
// DESIGN.md for the decision.
func EstimatedWaitMinutes(position, avgPrepTimePerItem, bufferTime int) int {
	return position*avgPrepTimePerItem + bufferTime
}

// EstimatedReadyAt converts a wait estimate into an absolute timestamp.
func EstimatedReadyAt(now time.Time, waitMinutes int) time.Time {
	return now.UTC().Add(time.Duration(waitMinutes) * time.Minute)
}

// PlanPositions re-derives dense positions 1..N for the active set.
// Priority is the primary key; the stored position breaks ties so equal
// priorities keep their arrival order, and creation time settles entries
// that have never been placed. Only entries whose position or estimate
// changed are returned.
func PlanPositions(entries []models.QueueEntry, cfg *models.QueueConfiguration, now time.Time) []store.PositionUpdate {
	sorted := make([]models.QueueEntry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Priority.Rank(), sorted[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var updates []store.PositionUpdate
	for i := range sorted {
		entry := sorted[i]
		oldPosition := entry.Position
		oldWait := entry.EstimatedWaitTime

		newPosition := i + 1
		wait := EstimatedWaitMinutes(newPosition, cfg.AvgPreparationTimePerItem, cfg.BufferTime)

		if newPosition == oldPosition && wait == oldWait {
			continue
		}

		readyAt := EstimatedReadyAt(now, wait)
		entry.Position = newPosition
		entry.EstimatedWaitTime = wait
		entry.EstimatedReadyTime = &readyAt

		updates = append(updates, store.PositionUpdate{
			Entry:       entry,
			OldPosition: oldPosition,
			OldWait:     oldWait,
		})
	}
	return updates
}
