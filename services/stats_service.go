package services

import (
	"context"
	"sync"
	"time"

	"queue-system/models"
	"queue-system/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsService maintains the derived daily and hourly rollups. All
// writes are idempotent recomputations from the entry table, so losing
// a refresh costs freshness, never correctness.
type StatsService struct {
	store    *store.Store
	logger   *zap.Logger
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped sync.WaitGroup
}

func NewStatsService(s *store.Store, interval time.Duration, logger *zap.Logger) *StatsService {
	return &StatsService{
		store:    s,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Run recomputes statistics on a fixed cadence until Stop is called.
// Mutation-driven refreshes happen in between via RefreshAsync.
func (s *StatsService) Run() {
	s.stopped.Add(1)
	go func() {
		defer s.stopped.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.refresh()
			case <-s.stopCh:
				return
			}
		}
	}()
}

func (s *StatsService) Stop() {
	close(s.stopCh)
	s.stopped.Wait()
}

// RefreshAsync is the hook the scheduler fires after mutations.
func (s *StatsService) RefreshAsync() {
	s.refresh()
}

func (s *StatsService) refresh() {
	// Serialize refreshes; the upserts are idempotent but overlapping
	// runs would waste work.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Recompute(time.Now().UTC()); err != nil {
		s.logger.Error("statistics recompute failed", zap.Error(err))
	}
}

// Recompute rebuilds the daily and hourly rows for the day containing
// now from the live entry set.
func (s *StatsService) Recompute(now time.Time) error {
	date := now.Format("2006-01-02")
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	entries, err := s.store.EntriesCreatedBetween(dayStart, dayEnd)
	if err != nil {
		return err
	}
	cfg, err := s.store.Configuration()
	if err != nil {
		return err
	}

	daily := computeDaily(date, entries, cfg, now)
	if err := s.store.UpsertDailyStatistics(daily); err != nil {
		return err
	}

	hourly := computeHourly(date, now.Hour(), entries)
	return s.store.UpsertHourlyStatistics(hourly)
}

func computeDaily(date string, entries []models.QueueEntry, cfg *models.QueueConfiguration, now time.Time) *models.DailyStatistics {
	stats := &models.DailyStatistics{Date: date}

	var (
		waitSamples int
		waitTotal   int
		prepSamples int
		prepTotal   int
		onTime      int
		finished    int
		revenue     = decimal.Zero
	)
	stats.ShortestWaitTime = -1

	for i := range entries {
		e := &entries[i]
		switch e.Status {
		case models.StatusWaiting:
			stats.WaitingCount++
		case models.StatusInProgress:
			stats.InProgressCount++
		case models.StatusReady:
			stats.ReadyCount++
		case models.StatusCompleted:
			stats.CompletedToday++
		case models.StatusCancelled:
			stats.CancelledToday++
		case models.StatusNoShow:
			stats.NoShowToday++
		case models.StatusExpired:
			stats.ExpiredToday++
		}

		// Observed wait: creation to preparation start.
		if e.ActualStartTime != nil {
			wait := int(e.ActualStartTime.Sub(e.CreatedAt).Minutes())
			if wait < 0 {
				wait = 0
			}
			waitSamples++
			waitTotal += wait
			if wait > stats.LongestWaitTime {
				stats.LongestWaitTime = wait
			}
			if stats.ShortestWaitTime < 0 || wait < stats.ShortestWaitTime {
				stats.ShortestWaitTime = wait
			}
		}

		// Observed preparation: start to ready.
		if e.ActualStartTime != nil && e.ActualReadyTime != nil {
			prep := int(e.ActualReadyTime.Sub(*e.ActualStartTime).Minutes())
			if prep < 0 {
				prep = 0
			}
			prepSamples++
			prepTotal += prep
		}

		if e.Status == models.StatusCompleted {
			finished++
			if e.ActualReadyTime != nil && e.EstimatedReadyTime != nil &&
				!e.ActualReadyTime.After(*e.EstimatedReadyTime) {
				onTime++
			}
			revenue = revenue.Add(e.OrderTotal())
		}
	}

	stats.TotalInQueue = stats.WaitingCount + stats.InProgressCount + stats.ReadyCount
	if waitSamples > 0 {
		stats.AvgWaitTime = waitTotal / waitSamples
	}
	if prepSamples > 0 {
		stats.AvgPreparationTime = prepTotal / prepSamples
	}
	if stats.ShortestWaitTime < 0 {
		stats.ShortestWaitTime = 0
	}
	if cfg.MaxConcurrentOrders > 0 {
		stats.CurrentLoad = float64(stats.WaitingCount+stats.InProgressCount) / float64(cfg.MaxConcurrentOrders)
	}
	if finished > 0 {
		stats.OnTimeCompletionRate = float64(onTime) / float64(finished)
	}
	if decided := stats.CompletedToday + stats.CancelledToday + stats.NoShowToday + stats.ExpiredToday; decided > 0 {
		stats.NoShowRate = float64(stats.NoShowToday) / float64(decided)
	}
	stats.PeakLoad = stats.CurrentLoad
	if stats.CurrentLoad > 0 {
		t := now.Format("15:04")
		stats.PeakLoadTime = &t
	}
	stats.Revenue = revenue.String()
	return stats
}

func computeHourly(date string, hour int, entries []models.QueueEntry) *models.HourlyStatistics {
	stats := &models.HourlyStatistics{Date: date, Hour: hour}

	var waitSamples, waitTotal, prepSamples, prepTotal int
	for i := range entries {
		e := &entries[i]
		if e.CreatedAt.Hour() != hour {
			continue
		}
		stats.OrderCount++
		switch e.Status {
		case models.StatusCompleted:
			stats.CompletedCount++
		case models.StatusCancelled:
			stats.CancelledCount++
		}
		if e.Position > stats.PeakPosition {
			stats.PeakPosition = e.Position
		}
		if e.ActualStartTime != nil {
			wait := int(e.ActualStartTime.Sub(e.CreatedAt).Minutes())
			if wait < 0 {
				wait = 0
			}
			waitSamples++
			waitTotal += wait
		}
		if e.ActualStartTime != nil && e.ActualReadyTime != nil {
			prep := int(e.ActualReadyTime.Sub(*e.ActualStartTime).Minutes())
			if prep < 0 {
				prep = 0
			}
			prepSamples++
			prepTotal += prep
		}
	}
	if waitSamples > 0 {
		stats.AvgWaitTime = waitTotal / waitSamples
	}
	if prepSamples > 0 {
		stats.AvgPreparationTime = prepTotal / prepSamples
	}
	return stats
}

// Daily returns the stored rollup for a calendar day.
func (s *StatsService) Daily(ctx context.Context, date string) (*models.DailyStatistics, error) {
	return s.store.DailyStatisticsFor(date)
}

// Hourly returns the stored rollup for one hour of a day.
func (s *StatsService) Hourly(ctx context.Context, date string, hour int) (*models.HourlyStatistics, error) {
	return s.store.HourlyStatisticsFor(date, hour)
}

// Summary is the public stats payload: today's rollup with the live
// counts layered over it.
func (s *StatsService) Summary(ctx context.Context, now time.Time) (*models.QueueStatsResponse, error) {
	date := now.Format("2006-01-02")

	if err := s.Recompute(now); err != nil {
		return nil, err
	}
	daily, err := s.store.DailyStatisticsFor(date)
	if err != nil {
		return nil, err
	}

	return &models.QueueStatsResponse{
		Date:                 daily.Date,
		TotalInQueue:         daily.TotalInQueue,
		WaitingCount:         daily.WaitingCount,
		InProgressCount:      daily.InProgressCount,
		ReadyCount:           daily.ReadyCount,
		CompletedToday:       daily.CompletedToday,
		CancelledToday:       daily.CancelledToday,
		AvgWaitTime:          daily.AvgWaitTime,
		AvgPreparationTime:   daily.AvgPreparationTime,
		CurrentLoad:          daily.CurrentLoad,
		OnTimeCompletionRate: daily.OnTimeCompletionRate,
		Revenue:              daily.Revenue,
	}, nil
}
