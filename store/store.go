package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"queue-system/internal/status"
	"queue-system/models"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var activeStatuses = []any{string(models.StatusWaiting), string(models.StatusInProgress)}

// Store is the durable queue store: entries, audit trail, configuration,
// statistics and the token counter.
type Store struct {
	db     *dbx.DB
	logger *zap.Logger
}

func Open(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := dbx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.NewQuery(stmt).Execute(); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Seed inserts the singleton configuration row and the priority
// multiplier table on first boot.
func (s *Store) Seed(defaults *models.QueueConfiguration) error {
	var existing models.QueueConfiguration
	err := s.db.Select("*").From(existing.TableName()).One(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read configuration: %w", err)
	}

	defaults.ID = uuid.New().String()
	defaults.UpdatedAt = time.Now().UTC()
	if err := s.db.Model(defaults).Insert(); err != nil {
		return fmt.Errorf("seed configuration: %w", err)
	}

	multipliers := map[models.Priority]float64{
		models.PriorityLow:    1.5,
		models.PriorityNormal: 1.0,
		models.PriorityHigh:   0.7,
		models.PriorityUrgent: 0.5,
		models.PriorityVIP:    0.3,
	}
	for priority, multiplier := range multipliers {
		m := &models.PriorityMultiplier{
			ID:         uuid.New().String(),
			Priority:   priority,
			Multiplier: multiplier,
		}
		if err := s.db.Model(m).Insert(); err != nil {
			return fmt.Errorf("seed multiplier %s: %w", priority, err)
		}
	}

	s.logger.Info("seeded queue configuration and priority multipliers")
	return nil
}

// --- queue entries ---

func (s *Store) CreateEntry(entry *models.QueueEntry) error {
	if err := s.db.Model(entry).Insert(); err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

func (s *Store) EntryByID(id string) (*models.QueueEntry, error) {
	return s.oneEntry(dbx.HashExp{"id": id})
}

func (s *Store) EntryByToken(token string) (*models.QueueEntry, error) {
	return s.oneEntry(dbx.HashExp{"token_number": token})
}

func (s *Store) EntryByOrderID(orderID string) (*models.QueueEntry, error) {
	return s.oneEntry(dbx.HashExp{"order_id": orderID})
}

func (s *Store) oneEntry(cond dbx.Expression) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.Select("*").From(entry.TableName()).Where(cond).One(&entry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read queue entry: %w", err)
	}
	return &entry, nil
}

// ActiveEntries returns the WAITING and IN_PROGRESS set ordered by
// stored position. Priority ordering is applied by the calculator.
func (s *Store) ActiveEntries() ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.Select("*").
		From(models.QueueEntry{}.TableName()).
		Where(dbx.In("status", activeStatuses...)).
		OrderBy("position ASC").
		All(&entries)
	if err != nil {
		return nil, fmt.Errorf("read active entries: %w", err)
	}
	return entries, nil
}

func (s *Store) EntriesByStatus(st models.Status, orderBy string, limit int) ([]models.QueueEntry, error) {
	q := s.db.Select("*").
		From(models.QueueEntry{}.TableName()).
		Where(dbx.HashExp{"status": string(st)}).
		OrderBy(orderBy)
	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	var entries []models.QueueEntry
	if err := q.All(&entries); err != nil {
		return nil, fmt.Errorf("read entries by status: %w", err)
	}
	return entries, nil
}

func (s *Store) UserEntries(userID string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.Select("*").
		From(models.QueueEntry{}.TableName()).
		Where(dbx.HashExp{"user_id": userID}).
		OrderBy("created_at DESC").
		All(&entries)
	if err != nil {
		return nil, fmt.Errorf("read user entries: %w", err)
	}
	return entries, nil
}

func (s *Store) MaxActivePosition() (int, error) {
	var max sql.NullInt64
	err := s.db.Select("MAX(position)").
		From(models.QueueEntry{}.TableName()).
		Where(dbx.In("status", activeStatuses...)).
		Row(&max)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read max position: %w", err)
	}
	return int(max.Int64), nil
}

func (s *Store) CountActiveAhead(position int) (int, error) {
	var count int
	err := s.db.Select("COUNT(*)").
		From(models.QueueEntry{}.TableName()).
		Where(dbx.In("status", activeStatuses...)).
		AndWhere(dbx.NewExp("position < {:pos}", dbx.Params{"pos": position})).
		Row(&count)
	if err != nil {
		return 0, fmt.Errorf("count entries ahead: %w", err)
	}
	return count, nil
}

// StaleWaitingEntries returns WAITING entries created before the cutoff,
// candidates for the expiry sweep.
func (s *Store) StaleWaitingEntries(cutoff time.Time) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.Select("*").
		From(models.QueueEntry{}.TableName()).
		Where(dbx.HashExp{"status": string(models.StatusWaiting)}).
		AndWhere(dbx.NewExp("created_at < {:cutoff}", dbx.Params{"cutoff": cutoff.UTC()})).
		All(&entries)
	if err != nil {
		return nil, fmt.Errorf("read stale entries: %w", err)
	}
	return entries, nil
}

func (s *Store) EntriesCreatedBetween(start, end time.Time) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.Select("*").
		From(models.QueueEntry{}.TableName()).
		Where(dbx.NewExp("created_at >= {:start} AND created_at < {:end}",
			dbx.Params{"start": start.UTC(), "end": end.UTC()})).
		All(&entries)
	if err != nil {
		return nil, fmt.Errorf("read entries by creation window: %w", err)
	}
	return entries, nil
}

// UpdateEntry applies a partial column update and bumps updated_at.
func (s *Store) UpdateEntry(id string, fields dbx.Params) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.db.Update(models.QueueEntry{}.TableName(), fields, dbx.HashExp{"id": id}).Execute()
	if err != nil {
		return fmt.Errorf("update queue entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return status.ErrNotFound
	}
	return nil
}

// PositionUpdate carries one entry's recalculation result together with
// the prior values needed for its history row.
type PositionUpdate struct {
	Entry       models.QueueEntry
	OldPosition int
	OldWait     int
}

// ApplyPositionUpdates writes a recalculation result atomically: every
// changed entry's position/estimates plus one history row each.
func (s *Store) ApplyPositionUpdates(updates []PositionUpdate, reason *string) error {
	if len(updates) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return s.db.Transactional(func(tx *dbx.Tx) error {
		for _, u := range updates {
			// Guard against racing with a terminal transition: once an
			// entry leaves the active set its position stays 0, so a
			// stale recalculation must not resurrect it.
			res, err := tx.Update(models.QueueEntry{}.TableName(), dbx.Params{
				"position":             u.Entry.Position,
				"estimated_wait_time":  u.Entry.EstimatedWaitTime,
				"estimated_ready_time": u.Entry.EstimatedReadyTime,
				"updated_at":           now,
			}, dbx.And(
				dbx.HashExp{"id": u.Entry.ID},
				dbx.In("status", activeStatuses...),
			)).Execute()
			if err != nil {
				return fmt.Errorf("write position for %s: %w", u.Entry.ID, err)
			}
			if affected, err := res.RowsAffected(); err == nil && affected == 0 {
				continue
			}

			history := historyParams(&u.Entry, u.OldPosition, u.Entry.Status, reason)
			if _, err := tx.Insert(models.PositionHistory{}.TableName(), history).Execute(); err != nil {
				return fmt.Errorf("write position history for %s: %w", u.Entry.ID, err)
			}
		}
		return nil
	})
}

// --- audit trail ---

func historyParams(entry *models.QueueEntry, oldPosition int, oldStatus models.Status, reason *string) dbx.Params {
	return dbx.Params{
		"id":                   uuid.New().String(),
		"queue_entry_id":       entry.ID,
		"old_position":         oldPosition,
		"new_position":         entry.Position,
		"old_status":           string(oldStatus),
		"new_status":           string(entry.Status),
		"estimated_wait_time":  entry.EstimatedWaitTime,
		"estimated_ready_time": entry.EstimatedReadyTime,
		"reason":               reason,
		"timestamp":            time.Now().UTC(),
	}
}

func (s *Store) RecordPositionHistory(entry *models.QueueEntry, oldPosition int, oldStatus models.Status, reason *string) error {
	params := historyParams(entry, oldPosition, oldStatus, reason)
	if _, err := s.db.Insert(models.PositionHistory{}.TableName(), params).Execute(); err != nil {
		return fmt.Errorf("insert position history: %w", err)
	}
	return nil
}

func (s *Store) HistoryForEntry(entryID string) ([]models.PositionHistory, error) {
	var rows []models.PositionHistory
	err := s.db.Select("*").
		From(models.PositionHistory{}.TableName()).
		Where(dbx.HashExp{"queue_entry_id": entryID}).
		OrderBy("timestamp DESC").
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("read position history: %w", err)
	}
	return rows, nil
}

func (s *Store) LogStaffAction(action *models.StaffActionLog) error {
	action.ID = uuid.New().String()
	action.Timestamp = time.Now().UTC()
	if err := s.db.Model(action).Insert(); err != nil {
		return fmt.Errorf("insert staff action: %w", err)
	}
	return nil
}

func (s *Store) ActionsForEntry(entryID string) ([]models.StaffActionLog, error) {
	var rows []models.StaffActionLog
	err := s.db.Select("*").
		From(models.StaffActionLog{}.TableName()).
		Where(dbx.HashExp{"queue_entry_id": entryID}).
		OrderBy("timestamp DESC").
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("read staff actions: %w", err)
	}
	return rows, nil
}

// --- configuration ---

func (s *Store) Configuration() (*models.QueueConfiguration, error) {
	var cfg models.QueueConfiguration
	err := s.db.Select("*").From(cfg.TableName()).One(&cfg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return &cfg, nil
}

func (s *Store) SaveConfiguration(cfg *models.QueueConfiguration) error {
	cfg.UpdatedAt = time.Now().UTC()
	if err := s.db.Model(cfg).Update(); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	return nil
}

func (s *Store) Multipliers() ([]models.PriorityMultiplier, error) {
	var rows []models.PriorityMultiplier
	err := s.db.Select("*").From(models.PriorityMultiplier{}.TableName()).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("read priority multipliers: %w", err)
	}
	return rows, nil
}

// --- token counter ---

// NextToken increments the per-day counter inside a transaction and
// returns the issued number and prefix. Past 999 the prefix rolls to the
// next letter; a day that exhausts Z999 gets ErrTokenSpaceExhausted.
func (s *Store) NextToken(day string) (prefix string, number int, err error) {
	err = s.db.Transactional(func(tx *dbx.Tx) error {
		var counter models.TokenCounter
		selErr := tx.Select("*").
			From(counter.TableName()).
			Where(dbx.HashExp{"date": day}).
			One(&counter)

		if errors.Is(selErr, sql.ErrNoRows) {
			counter = models.TokenCounter{
				ID:            uuid.New().String(),
				Date:          day,
				CurrentNumber: 1,
				Prefix:        "A",
				LastResetAt:   time.Now().UTC(),
			}
			if _, insErr := tx.Insert(counter.TableName(), dbx.Params{
				"id":             counter.ID,
				"date":           counter.Date,
				"current_number": counter.CurrentNumber,
				"prefix":         counter.Prefix,
				"last_reset_at":  counter.LastResetAt,
			}).Execute(); insErr != nil {
				return fmt.Errorf("create token counter: %w", insErr)
			}
			prefix, number = counter.Prefix, counter.CurrentNumber
			return nil
		}
		if selErr != nil {
			return fmt.Errorf("read token counter: %w", selErr)
		}

		counter.CurrentNumber++
		if counter.CurrentNumber > 999 {
			if counter.Prefix >= "Z" {
				return status.ErrTokenSpaceExhausted
			}
			counter.Prefix = string(rune(counter.Prefix[0]) + 1)
			counter.CurrentNumber = 1
		}

		if _, updErr := tx.Update(counter.TableName(), dbx.Params{
			"current_number": counter.CurrentNumber,
			"prefix":         counter.Prefix,
		}, dbx.HashExp{"date": day}).Execute(); updErr != nil {
			return fmt.Errorf("update token counter: %w", updErr)
		}
		prefix, number = counter.Prefix, counter.CurrentNumber
		return nil
	})
	return prefix, number, err
}

// --- statistics ---

func (s *Store) DailyStatisticsFor(date string) (*models.DailyStatistics, error) {
	var stats models.DailyStatistics
	err := s.db.Select("*").From(stats.TableName()).Where(dbx.HashExp{"date": date}).One(&stats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read daily statistics: %w", err)
	}
	return &stats, nil
}

// UpsertDailyStatistics writes today's rollup without assuming it is the
// only writer for the row.
func (s *Store) UpsertDailyStatistics(stats *models.DailyStatistics) error {
	existing, err := s.DailyStatisticsFor(stats.Date)
	if errors.Is(err, status.ErrNotFound) {
		stats.ID = uuid.New().String()
		stats.UpdatedAt = time.Now().UTC()
		if insErr := s.db.Model(stats).Insert(); insErr != nil {
			return fmt.Errorf("insert daily statistics: %w", insErr)
		}
		return nil
	}
	if err != nil {
		return err
	}

	stats.ID = existing.ID
	// Peak load is a watermark; never lower it on recompute.
	if existing.PeakLoad > stats.PeakLoad {
		stats.PeakLoad = existing.PeakLoad
		stats.PeakLoadTime = existing.PeakLoadTime
	}
	stats.UpdatedAt = time.Now().UTC()
	if updErr := s.db.Model(stats).Update(); updErr != nil {
		return fmt.Errorf("update daily statistics: %w", updErr)
	}
	return nil
}

func (s *Store) HourlyStatisticsFor(date string, hour int) (*models.HourlyStatistics, error) {
	var stats models.HourlyStatistics
	err := s.db.Select("*").From(stats.TableName()).
		Where(dbx.HashExp{"date": date, "hour": hour}).
		One(&stats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read hourly statistics: %w", err)
	}
	return &stats, nil
}

func (s *Store) UpsertHourlyStatistics(stats *models.HourlyStatistics) error {
	existing, err := s.HourlyStatisticsFor(stats.Date, stats.Hour)
	if errors.Is(err, status.ErrNotFound) {
		stats.ID = uuid.New().String()
		stats.UpdatedAt = time.Now().UTC()
		if insErr := s.db.Model(stats).Insert(); insErr != nil {
			return fmt.Errorf("insert hourly statistics: %w", insErr)
		}
		return nil
	}
	if err != nil {
		return err
	}

	stats.ID = existing.ID
	if existing.PeakPosition > stats.PeakPosition {
		stats.PeakPosition = existing.PeakPosition
	}
	stats.UpdatedAt = time.Now().UTC()
	if updErr := s.db.Model(stats).Update(); updErr != nil {
		return fmt.Errorf("update hourly statistics: %w", updErr)
	}
	return nil
}
