package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/monitoring"
	"queue-system/store"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"go.uber.org/zap"
)

// SystemActorID marks mutations driven by the event bridge or sweeper
// rather than a staff member.
const SystemActorID = "system"

const bulkItemThreshold = 10

// EventPublisher is the outward half of the event bridge. Publish
// failures never roll back store writes.
type EventPublisher interface {
	PublishQueueEvent(ctx context.Context, event models.QueueEvent)
	PublishNotificationEvent(ctx context.Context, event models.QueueEvent)
}

// NopPublisher is used in tests and when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishQueueEvent(context.Context, models.QueueEvent)        {}
func (NopPublisher) PublishNotificationEvent(context.Context, models.QueueEvent) {}

// EntryCache is the non-authoritative fast read path.
type EntryCache interface {
	SetEntry(ctx context.Context, entry *models.QueueEntry)
	Entry(ctx context.Context, entryID string) (*models.QueueEntry, bool)
	InvalidateEntry(ctx context.Context, entryID string)
	Snapshot(ctx context.Context) (*models.CurrentQueueResponse, bool)
	SetSnapshot(ctx context.Context, snapshot *models.CurrentQueueResponse)
	InvalidateSnapshot(ctx context.Context)
}

// NopCache disables the read cache.
type NopCache struct{}

func (NopCache) SetEntry(context.Context, *models.QueueEntry) {}
func (NopCache) Entry(context.Context, string) (*models.QueueEntry, bool) {
	return nil, false
}
func (NopCache) InvalidateEntry(context.Context, string) {}
func (NopCache) Snapshot(context.Context) (*models.CurrentQueueResponse, bool) {
	return nil, false
}
func (NopCache) SetSnapshot(context.Context, *models.CurrentQueueResponse) {}
func (NopCache) InvalidateSnapshot(context.Context)                        {}

// QueueService is the scheduler: the single writer driving entry
// creation, status transitions, priority changes, assignment and
// position recalculation.
type QueueService struct {
	store     *store.Store
	tokens    *TokenService
	publisher EventPublisher
	notifier  Notifier
	cache     EntryCache
	menu      MenuClient
	logger    *zap.Logger

	// mu serializes "read active set, plan, write positions" against
	// concurrent entry creation. It is never held across bus or
	// notification I/O.
	mu sync.Mutex

	statsRefresh func()
}

func NewQueueService(
	s *store.Store,
	tokens *TokenService,
	publisher EventPublisher,
	notifier Notifier,
	cache EntryCache,
	menu MenuClient,
	logger *zap.Logger,
) *QueueService {
	return &QueueService{
		store:     s,
		tokens:    tokens,
		publisher: publisher,
		notifier:  notifier,
		cache:     cache,
		menu:      menu,
		logger:    logger,
	}
}

// SetStatsRefresh registers the statistics refresh hook invoked after
// every mutation. Statistics tolerate staleness, so the hook runs
// detached.
func (s *QueueService) SetStatsRefresh(f func()) {
	s.statsRefresh = f
}

func (s *QueueService) refreshStats() {
	if s.statsRefresh != nil {
		go s.statsRefresh()
	}
}

// CreateEntry admits an order into the line: duplicate guard, token,
// position at the tail, classification and initial estimates.
func (s *QueueService) CreateEntry(ctx context.Context, req *models.CreateQueueEntryRequest) (*models.QueueEntry, error) {
	if req.OrderID == "" || req.UserID == "" {
		return nil, fmt.Errorf("%w: order_id and user_id are required", status.ErrValidation)
	}
	if req.Priority != "" && !req.Priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", status.ErrValidation, req.Priority)
	}
	if req.TokenType != "" && !req.TokenType.IsValid() {
		return nil, fmt.Errorf("%w: unknown token type %q", status.ErrValidation, req.TokenType)
	}

	itemCount := req.ItemCount
	if itemCount <= 0 {
		itemCount = 1
	}

	s.mu.Lock()
	entry, cfg, err := s.createLocked(ctx, req, itemCount)
	s.mu.Unlock()
	if err != nil {
		monitoring.TrackQueueOperation("create", "error")
		return nil, err
	}

	monitoring.TrackQueueOperation("create", "success")
	monitoring.TrackTokenIssued()

	s.cache.SetEntry(ctx, entry)
	s.cache.InvalidateSnapshot(ctx)
	s.publisher.PublishQueueEvent(ctx, models.NewQueueEvent(models.EventEntryCreated, entry))
	if s.positionNotifiable(cfg, entry.Position) {
		s.notifier.NotifyPosition(entry)
	}
	s.refreshStats()

	s.logger.Info("queue entry created",
		zap.String("order_id", entry.OrderID),
		zap.String("token", entry.TokenNumber),
		zap.Int("position", entry.Position))
	return entry, nil
}

func (s *QueueService) createLocked(ctx context.Context, req *models.CreateQueueEntryRequest, itemCount int) (*models.QueueEntry, *models.QueueConfiguration, error) {
	if _, err := s.store.EntryByOrderID(req.OrderID); err == nil {
		return nil, nil, fmt.Errorf("%w: order %s", status.ErrDuplicateEntry, req.OrderID)
	} else if !errors.Is(err, status.ErrNotFound) {
		return nil, nil, err
	}

	cfg, err := s.store.Configuration()
	if err != nil {
		return nil, nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	isExpress := req.IsExpressQueue

	// Small orders qualify for the express lane when it is enabled; the
	// threshold comes from configuration, not a constant.
	if cfg.ExpressQueueEnabled && !isExpress && itemCount <= cfg.ExpressQueueMaxItems {
		isExpress = true
		if priority.Rank() < models.PriorityHigh.Rank() {
			priority = models.PriorityHigh
		}
	}

	tokenType := req.TokenType
	if tokenType == "" {
		tokenType = classifyToken(itemCount, isExpress)
	}

	token, err := s.tokens.Issue(time.Now())
	if err != nil {
		return nil, nil, err
	}

	maxPosition, err := s.store.MaxActivePosition()
	if err != nil {
		return nil, nil, err
	}
	position := maxPosition + 1

	avgItemPrep := cfg.AvgPreparationTimePerItem
	if len(req.MenuItemIDs) > 0 {
		if avg, menuErr := s.menu.AveragePreparationTime(ctx, req.MenuItemIDs); menuErr == nil && avg > 0 {
			avgItemPrep = avg
		} else if menuErr != nil {
			s.logger.Warn("menu lookup failed, using configured average", zap.Error(menuErr))
		}
	}

	now := time.Now().UTC()
	wait := EstimatedWaitMinutes(position, cfg.AvgPreparationTimePerItem, cfg.BufferTime)
	readyAt := EstimatedReadyAt(now, wait)
	totalPrep := avgItemPrep * itemCount

	entry := &models.QueueEntry{
		ID:                         uuid.New().String(),
		OrderID:                    req.OrderID,
		UserID:                     req.UserID,
		UserName:                   optional(req.UserName),
		UserPhone:                  optional(req.UserPhone),
		TokenNumber:                token,
		TokenType:                  tokenType,
		Status:                     models.StatusWaiting,
		Priority:                   priority,
		Position:                   position,
		EstimatedWaitTime:          wait,
		EstimatedReadyTime:         &readyAt,
		AverageItemPreparationTime: &totalPrep,
		IsExpressQueue:             isExpress,
		SpecialHandling:            optional(req.SpecialHandling),
		TotalAmount:                optional(req.TotalAmount),
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	if err := s.store.CreateEntry(entry); err != nil {
		return nil, nil, err
	}

	reason := "entry created"
	if err := s.store.RecordPositionHistory(entry, 0, models.StatusWaiting, &reason); err != nil {
		s.logger.Warn("failed to record creation history", zap.Error(err))
	}
	return entry, cfg, nil
}

// positionNotifiable gates position pushes on the configured notification
// tunables: pushes can be switched off entirely, everything at or below
// the position threshold is always told, and the rest of the line is
// throttled.
func (s *QueueService) positionNotifiable(cfg *models.QueueConfiguration, position int) bool {
	if cfg == nil || !cfg.AutoNotificationEnabled {
		return false
	}
	if cfg.NotificationPositionThreshold > 0 && position <= cfg.NotificationPositionThreshold {
		return true
	}
	return ShouldNotifyPosition(position)
}

func classifyToken(itemCount int, isExpress bool) models.TokenType {
	if isExpress {
		return models.TokenExpress
	}
	if itemCount > bulkItemThreshold {
		return models.TokenBulk
	}
	return models.TokenRegular
}

// UpdateStatus drives the entry state machine. Terminal transitions free
// a slot and therefore recalculate the remaining active set before the
// call returns.
func (s *QueueService) UpdateStatus(ctx context.Context, entryID string, req *models.UpdateQueueStatusRequest, actorID, actorName string) (*models.QueueEntry, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", status.ErrValidation, req.Status)
	}

	entry, err := s.store.EntryByID(entryID)
	if err != nil {
		monitoring.TrackQueueOperation("update_status", "not_found")
		return nil, err
	}

	if err := models.ValidateTransition(entry.Status, req.Status); err != nil {
		monitoring.TrackQueueOperation("update_status", "invalid_transition")
		return nil, err
	}

	oldStatus := entry.Status
	oldPosition := entry.Position
	now := time.Now().UTC()

	fields := dbx.Params{"status": string(req.Status)}

	// Actual timestamps are set at most once per entry.
	switch req.Status {
	case models.StatusInProgress:
		if entry.ActualStartTime == nil {
			fields["actual_start_time"] = now
		}
		if req.AssignedCounter != nil {
			fields["assigned_counter"] = *req.AssignedCounter
		}
		if req.AssignedStaff != nil {
			fields["assigned_staff"] = *req.AssignedStaff
		}
	case models.StatusReady:
		if entry.ActualReadyTime == nil {
			fields["actual_ready_time"] = now
		}
	case models.StatusCompleted:
		if entry.ActualCompletionTime == nil {
			fields["actual_completion_time"] = now
		}
	}

	// Terminal entries no longer hold a queue position.
	if req.Status.IsTerminal() {
		fields["position"] = 0
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	if err := s.store.UpdateEntry(entry.ID, fields); err != nil {
		monitoring.TrackQueueOperation("update_status", "error")
		return nil, err
	}

	oldStatusStr, newStatusStr := string(oldStatus), string(req.Status)
	action := &models.StaffActionLog{
		QueueEntryID: entry.ID,
		StaffID:      actorID,
		StaffName:    optional(actorName),
		Action:       models.ActionForStatus(req.Status),
		OldStatus:    &oldStatusStr,
		NewStatus:    &newStatusStr,
		Reason:       req.Reason,
	}
	if err := s.store.LogStaffAction(action); err != nil {
		s.logger.Warn("failed to log staff action", zap.Error(err))
	}

	updated, err := s.store.EntryByID(entry.ID)
	if err != nil {
		return nil, err
	}

	// Position history records the status delta even when the position
	// itself did not move.
	if err := s.store.RecordPositionHistory(updated, oldPosition, oldStatus, req.Reason); err != nil {
		s.logger.Warn("failed to record position history", zap.Error(err))
	}

	if req.Status.IsTerminal() {
		reason := fmt.Sprintf("slot freed by %s", newStatusStr)
		if err := s.Recalculate(ctx, reason); err != nil {
			s.logger.Error("recalculation after terminal transition failed", zap.Error(err))
		}
	}

	monitoring.TrackQueueOperation("update_status", "success")
	s.cache.InvalidateEntry(ctx, entry.ID)
	s.cache.InvalidateSnapshot(ctx)
	s.publishStatusChange(ctx, updated, oldStatus, s.notificationsEnabled())
	s.refreshStats()

	s.logger.Info("queue status updated",
		zap.String("token", updated.TokenNumber),
		zap.String("from", oldStatusStr),
		zap.String("to", newStatusStr),
		zap.String("actor", actorID))
	return updated, nil
}

// notificationsEnabled reads the auto-notification switch. A config read
// failure only silences best-effort pushes, never the mutation itself.
func (s *QueueService) notificationsEnabled() bool {
	cfg, err := s.store.Configuration()
	if err != nil {
		s.logger.Warn("failed to read configuration for notification gating", zap.Error(err))
		return false
	}
	return cfg.AutoNotificationEnabled
}

// publishStatusChange emits the bus events for a transition. Queue bus
// events always flow; user-facing notification events and pushes honor
// the auto-notification switch.
func (s *QueueService) publishStatusChange(ctx context.Context, entry *models.QueueEntry, oldStatus models.Status, notify bool) {
	event := models.NewQueueEvent(models.EventStatusChanged, entry)
	event.OldStatus = oldStatus
	s.publisher.PublishQueueEvent(ctx, event)

	switch entry.Status {
	case models.StatusReady:
		if notify {
			ready := models.NewQueueEvent(models.EventReady, entry)
			ready.NotificationType = "READY"
			s.publisher.PublishNotificationEvent(ctx, ready)
			s.notifier.NotifyStatus(entry, "Your order is ready for pickup!")
		}
	case models.StatusCompleted:
		s.publisher.PublishQueueEvent(ctx, models.NewQueueEvent(models.EventCompleted, entry))
	case models.StatusExpired:
		if notify {
			s.notifier.NotifyStatus(entry, "Your token has expired. Please contact staff.")
		}
	default:
		if notify {
			s.notifier.NotifyStatus(entry, fmt.Sprintf("Order status: %s", entry.Status))
		}
	}
}

// UpdatePriority changes the ordering key and therefore recalculates.
func (s *QueueService) UpdatePriority(ctx context.Context, entryID string, req *models.UpdateQueuePriorityRequest, actorID, actorName string) (*models.QueueEntry, error) {
	if !req.Priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", status.ErrValidation, req.Priority)
	}

	entry, err := s.store.EntryByID(entryID)
	if err != nil {
		return nil, err
	}

	oldPriority := string(entry.Priority)
	newPriority := string(req.Priority)

	if err := s.store.UpdateEntry(entry.ID, dbx.Params{"priority": newPriority}); err != nil {
		monitoring.TrackQueueOperation("update_priority", "error")
		return nil, err
	}

	action := &models.StaffActionLog{
		QueueEntryID: entry.ID,
		StaffID:      actorID,
		StaffName:    optional(actorName),
		Action:       models.ActionAdjustPriority,
		OldPriority:  &oldPriority,
		NewPriority:  &newPriority,
		Reason:       req.Reason,
	}
	if err := s.store.LogStaffAction(action); err != nil {
		s.logger.Warn("failed to log staff action", zap.Error(err))
	}

	if err := s.Recalculate(ctx, fmt.Sprintf("priority changed to %s", newPriority)); err != nil {
		s.logger.Error("recalculation after priority change failed", zap.Error(err))
	}

	monitoring.TrackQueueOperation("update_priority", "success")
	s.cache.InvalidateEntry(ctx, entry.ID)
	s.refreshStats()

	return s.store.EntryByID(entry.ID)
}

// AssignStaff is a metadata-only change; positions are untouched.
func (s *QueueService) AssignStaff(ctx context.Context, entryID string, req *models.AssignStaffRequest, actorID, actorName string) error {
	if req.StaffID == "" {
		return fmt.Errorf("%w: staff_id is required", status.ErrValidation)
	}

	if _, err := s.store.EntryByID(entryID); err != nil {
		return err
	}

	fields := dbx.Params{
		"assigned_staff":      req.StaffID,
		"assigned_staff_name": req.StaffName,
	}
	if req.Counter != nil {
		fields["assigned_counter"] = *req.Counter
	}
	if err := s.store.UpdateEntry(entryID, fields); err != nil {
		monitoring.TrackQueueOperation("assign_staff", "error")
		return err
	}

	reason := "staff assigned"
	action := &models.StaffActionLog{
		QueueEntryID: entryID,
		StaffID:      actorID,
		StaffName:    optional(actorName),
		Action:       models.ActionReassign,
		Reason:       &reason,
	}
	if err := s.store.LogStaffAction(action); err != nil {
		s.logger.Warn("failed to log staff action", zap.Error(err))
	}

	monitoring.TrackQueueOperation("assign_staff", "success")
	s.cache.InvalidateEntry(ctx, entryID)
	return nil
}

// AddNote appends free text to an entry and records the action.
func (s *QueueService) AddNote(ctx context.Context, entryID, note, actorID, actorName string) error {
	if note == "" {
		return fmt.Errorf("%w: note is required", status.ErrValidation)
	}
	if _, err := s.store.EntryByID(entryID); err != nil {
		return err
	}
	if err := s.store.UpdateEntry(entryID, dbx.Params{"notes": note}); err != nil {
		return err
	}

	action := &models.StaffActionLog{
		QueueEntryID: entryID,
		StaffID:      actorID,
		StaffName:    optional(actorName),
		Action:       models.ActionAddNote,
		Note:         &note,
	}
	if err := s.store.LogStaffAction(action); err != nil {
		s.logger.Warn("failed to log staff action", zap.Error(err))
	}
	s.cache.InvalidateEntry(ctx, entryID)
	return nil
}

// AdvanceQueue moves the best WAITING entry to IN_PROGRESS: highest
// priority first, lowest position among equals.
func (s *QueueService) AdvanceQueue(ctx context.Context, actorID, actorName string) (*models.QueueEntry, error) {
	waiting, err := s.store.EntriesByStatus(models.StatusWaiting, "position ASC", 0)
	if err != nil {
		return nil, err
	}
	if len(waiting) == 0 {
		monitoring.TrackQueueOperation("advance", "empty")
		return nil, status.ErrQueueEmpty
	}

	next := waiting[0]
	for _, candidate := range waiting[1:] {
		if candidate.Priority.Rank() > next.Priority.Rank() {
			next = candidate
		}
	}

	updated, err := s.UpdateStatus(ctx, next.ID, &models.UpdateQueueStatusRequest{
		Status: models.StatusInProgress,
	}, actorID, actorName)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishQueueEvent(ctx, models.NewQueueEvent(models.EventAdvanced, updated))
	monitoring.TrackQueueOperation("advance", "success")
	return updated, nil
}

// Recalculate re-derives dense positions and estimates for the whole
// active set. Idempotent; safe to call at any time.
func (s *QueueService) Recalculate(ctx context.Context, reason string) error {
	started := time.Now()

	s.mu.Lock()
	updates, cfg, err := s.recalculateLocked(reason)
	s.mu.Unlock()
	if err != nil {
		monitoring.TrackQueueOperation("recalculate", "error")
		return err
	}

	monitoring.ObserveRecalculation(time.Since(started))
	monitoring.TrackQueueOperation("recalculate", "success")

	// Bus and notification I/O happen outside the lock.
	for i := range updates {
		entry := updates[i].Entry
		oldPosition := updates[i].OldPosition
		s.cache.InvalidateEntry(ctx, entry.ID)
		s.publisher.PublishQueueEvent(ctx, models.NewQueueEvent(models.EventPositionUpdated, &entry))

		if oldPosition == entry.Position {
			continue
		}
		if s.almostReady(cfg, oldPosition, entry.Position) {
			almost := models.NewQueueEvent(models.EventAlmostReady, &entry)
			almost.NotificationType = "ALMOST_READY"
			s.publisher.PublishNotificationEvent(ctx, almost)
			s.notifier.NotifyStatus(&entry, "Almost ready! Your order is coming up.")
		} else if s.positionNotifiable(cfg, entry.Position) {
			s.notifier.NotifyPosition(&entry)
		}
	}
	if len(updates) > 0 {
		s.cache.InvalidateSnapshot(ctx)
	}

	s.logger.Debug("positions recalculated",
		zap.Int("changed", len(updates)),
		zap.String("reason", reason))
	return nil
}

func (s *QueueService) recalculateLocked(reason string) ([]store.PositionUpdate, *models.QueueConfiguration, error) {
	entries, err := s.store.ActiveEntries()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.store.Configuration()
	if err != nil {
		return nil, nil, err
	}

	updates := PlanPositions(entries, cfg, time.Now().UTC())
	if err := s.store.ApplyPositionUpdates(updates, &reason); err != nil {
		return nil, nil, err
	}
	return updates, cfg, nil
}

// almostReady reports whether a position move crossed into the
// almost-ready band from outside it.
func (s *QueueService) almostReady(cfg *models.QueueConfiguration, oldPosition, newPosition int) bool {
	if cfg == nil || !cfg.AutoNotificationEnabled || cfg.NotificationAlmostReadyThreshold <= 0 {
		return false
	}
	return newPosition <= cfg.NotificationAlmostReadyThreshold &&
		oldPosition > cfg.NotificationAlmostReadyThreshold
}

// --- queries ---

// EntryByID serves reads through the entry cache; mutations always go to
// the store directly.
func (s *QueueService) EntryByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	if entry, ok := s.cache.Entry(ctx, id); ok {
		return entry, nil
	}
	entry, err := s.store.EntryByID(id)
	if err != nil {
		return nil, err
	}
	s.cache.SetEntry(ctx, entry)
	return entry, nil
}

func (s *QueueService) EntryByToken(ctx context.Context, token string) (*models.QueueEntry, error) {
	return s.store.EntryByToken(token)
}

func (s *QueueService) EntryByOrderID(ctx context.Context, orderID string) (*models.QueueEntry, error) {
	return s.store.EntryByOrderID(orderID)
}

func (s *QueueService) UserEntries(ctx context.Context, userID string) ([]models.QueueEntry, error) {
	return s.store.UserEntries(userID)
}

// ActiveEntries lists the WAITING and IN_PROGRESS set in position order.
func (s *QueueService) ActiveEntries(ctx context.Context) ([]models.QueueEntry, error) {
	return s.store.ActiveEntries()
}

// Position answers the public token lookup. Expired tokens answer as not
// found so outsiders cannot distinguish expiry from absence.
func (s *QueueService) Position(ctx context.Context, token string) (*models.QueuePositionResponse, error) {
	entry, err := s.store.EntryByToken(token)
	if err != nil {
		return nil, err
	}
	if entry.Status == models.StatusExpired {
		return nil, status.ErrNotFound
	}

	ahead := 0
	if entry.Status.IsActive() {
		ahead, err = s.store.CountActiveAhead(entry.Position)
		if err != nil {
			return nil, err
		}
	}

	return &models.QueuePositionResponse{
		QueueEntry:         entry,
		Position:           entry.Position,
		EstimatedWaitTime:  entry.EstimatedWaitTime,
		EstimatedReadyTime: entry.EstimatedReadyTime,
		PeopleAhead:        ahead,
	}, nil
}

// CurrentQueue returns the live snapshot, served from cache when fresh.
func (s *QueueService) CurrentQueue(ctx context.Context) (*models.CurrentQueueResponse, error) {
	if snapshot, ok := s.cache.Snapshot(ctx); ok {
		return snapshot, nil
	}

	waiting, err := s.store.EntriesByStatus(models.StatusWaiting, "position ASC", 0)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.store.EntriesByStatus(models.StatusInProgress, "position ASC", 0)
	if err != nil {
		return nil, err
	}
	ready, err := s.store.EntriesByStatus(models.StatusReady, "actual_ready_time DESC", 20)
	if err != nil {
		return nil, err
	}

	snapshot := &models.CurrentQueueResponse{
		Waiting:     waiting,
		InProgress:  inProgress,
		Ready:       ready,
		TotalActive: len(waiting) + len(inProgress) + len(ready),
	}
	s.cache.SetSnapshot(ctx, snapshot)

	monitoring.SetQueueLength(string(models.StatusWaiting), len(waiting))
	monitoring.SetQueueLength(string(models.StatusInProgress), len(inProgress))
	monitoring.SetQueueLength(string(models.StatusReady), len(ready))
	return snapshot, nil
}

func (s *QueueService) ActionLogs(ctx context.Context, entryID string) ([]models.StaffActionLog, error) {
	if _, err := s.store.EntryByID(entryID); err != nil {
		return nil, err
	}
	return s.store.ActionsForEntry(entryID)
}

func (s *QueueService) PositionHistory(ctx context.Context, entryID string) ([]models.PositionHistory, error) {
	if _, err := s.store.EntryByID(entryID); err != nil {
		return nil, err
	}
	return s.store.HistoryForEntry(entryID)
}

// --- configuration ---

func (s *QueueService) Configuration(ctx context.Context) (*models.QueueConfiguration, error) {
	return s.store.Configuration()
}

func (s *QueueService) Multipliers(ctx context.Context) ([]models.PriorityMultiplier, error) {
	return s.store.Multipliers()
}

// UpdateConfiguration applies a partial update and recalculates all
// active estimates under the new tunables.
func (s *QueueService) UpdateConfiguration(ctx context.Context, req *models.UpdateConfigurationRequest, actorID string) (*models.QueueConfiguration, error) {
	cfg, err := s.store.Configuration()
	if err != nil {
		return nil, err
	}

	applyConfigPatch(cfg, req)
	cfg.UpdatedBy = &actorID
	if err := s.store.SaveConfiguration(cfg); err != nil {
		return nil, err
	}

	if err := s.Recalculate(ctx, "configuration updated"); err != nil {
		s.logger.Error("recalculation after configuration update failed", zap.Error(err))
	}
	return cfg, nil
}

func applyConfigPatch(cfg *models.QueueConfiguration, req *models.UpdateConfigurationRequest) {
	if req.MaxConcurrentOrders != nil {
		cfg.MaxConcurrentOrders = *req.MaxConcurrentOrders
	}
	if req.AvgPreparationTimePerItem != nil {
		cfg.AvgPreparationTimePerItem = *req.AvgPreparationTimePerItem
	}
	if req.BufferTime != nil {
		cfg.BufferTime = *req.BufferTime
	}
	if req.ExpressQueueEnabled != nil {
		cfg.ExpressQueueEnabled = *req.ExpressQueueEnabled
	}
	if req.ExpressQueueMaxItems != nil {
		cfg.ExpressQueueMaxItems = *req.ExpressQueueMaxItems
	}
	if req.MaxWaitTimeAlert != nil {
		cfg.MaxWaitTimeAlert = *req.MaxWaitTimeAlert
	}
	if req.TokenExpiryTime != nil {
		cfg.TokenExpiryTime = *req.TokenExpiryTime
	}
	if req.AutoNotificationEnabled != nil {
		cfg.AutoNotificationEnabled = *req.AutoNotificationEnabled
	}
	if req.NotificationPositionThreshold != nil {
		cfg.NotificationPositionThreshold = *req.NotificationPositionThreshold
	}
	if req.NotificationAlmostReadyThreshold != nil {
		cfg.NotificationAlmostReadyThreshold = *req.NotificationAlmostReadyThreshold
	}
}

// ExpireStale transitions WAITING entries past the configured token
// expiry to EXPIRED. Called by the sweeper on a bounded schedule.
func (s *QueueService) ExpireStale(ctx context.Context) (int, error) {
	cfg, err := s.store.Configuration()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-time.Duration(cfg.TokenExpiryTime) * time.Minute)
	stale, err := s.store.StaleWaitingEntries(cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	reason := "token expired"
	for i := range stale {
		_, err := s.UpdateStatus(ctx, stale[i].ID, &models.UpdateQueueStatusRequest{
			Status: models.StatusExpired,
			Reason: &reason,
		}, SystemActorID, "System")
		if err != nil {
			s.logger.Warn("failed to expire entry",
				zap.String("entry_id", stale[i].ID),
				zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
