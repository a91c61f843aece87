package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"queue-system/internal/status"
	"queue-system/middleware"
	"queue-system/models"
	"queue-system/services"

	"github.com/labstack/echo/v5"
)

type QueueHandler struct {
	queue *services.QueueService
	stats *services.StatsService
}

func NewQueueHandler(queue *services.QueueService, stats *services.StatsService) *QueueHandler {
	return &QueueHandler{queue: queue, stats: stats}
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, status.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, status.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	case errors.Is(err, status.ErrDuplicateEntry):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, status.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, status.ErrQueueEmpty):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, status.ErrConcurrencyConflict):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, status.ErrUpstreamUnavailable):
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
	}
}

// CreateEntry handles POST /api/queue (authenticated).
func (h *QueueHandler) CreateEntry(c echo.Context) error {
	var req models.CreateQueueEntryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}
	if req.UserID == "" {
		req.UserID = middleware.UserID(c)
	}

	entry, err := h.queue.CreateEntry(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// CurrentQueue handles GET /api/queue/current (public display board).
func (h *QueueHandler) CurrentQueue(c echo.Context) error {
	snapshot, err := h.queue.CurrentQueue(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// ActiveEntries handles GET /api/queue (public active list).
func (h *QueueHandler) ActiveEntries(c echo.Context) error {
	entries, err := h.queue.ActiveEntries(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Position handles GET /api/queue/position/:token (public).
func (h *QueueHandler) Position(c echo.Context) error {
	pos, err := h.queue.Position(c.Request().Context(), c.PathParam("token"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, pos)
}

// EntryByToken handles GET /api/queue/token/:token (public).
func (h *QueueHandler) EntryByToken(c echo.Context) error {
	entry, err := h.queue.EntryByToken(c.Request().Context(), c.PathParam("token"))
	if err != nil {
		return writeError(c, err)
	}
	// Expired tokens answer as not found on the public surface.
	if entry.Status == models.StatusExpired {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	}
	return c.JSON(http.StatusOK, entry)
}

// EntryByOrderID handles GET /api/queue/order/:orderId (authenticated).
func (h *QueueHandler) EntryByOrderID(c echo.Context) error {
	entry, err := h.queue.EntryByOrderID(c.Request().Context(), c.PathParam("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// MyEntries handles GET /api/queue/user/me (authenticated).
func (h *QueueHandler) MyEntries(c echo.Context) error {
	entries, err := h.queue.UserEntries(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Stats handles GET /api/queue/stats (public).
func (h *QueueHandler) Stats(c echo.Context) error {
	summary, err := h.stats.Summary(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// DailyStats handles GET /api/queue/stats/daily/:date (staff).
func (h *QueueHandler) DailyStats(c echo.Context) error {
	stats, err := h.stats.Daily(c.Request().Context(), c.PathParam("date"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// HourlyStats handles GET /api/queue/stats/hourly/:date/:hour (staff).
func (h *QueueHandler) HourlyStats(c echo.Context) error {
	hour, err := strconv.Atoi(c.PathParam("hour"))
	if err != nil || hour < 0 || hour > 23 {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "hour must be 0-23"})
	}
	stats, err := h.stats.Hourly(c.Request().Context(), c.PathParam("date"), hour)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// UpdateStatus handles PATCH /api/queue/:id/status (staff).
func (h *QueueHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateQueueStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	entry, err := h.queue.UpdateStatus(c.Request().Context(), c.PathParam("id"), &req,
		middleware.UserID(c), middleware.UserName(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// UpdatePriority handles PUT /api/queue/:id/priority (staff).
func (h *QueueHandler) UpdatePriority(c echo.Context) error {
	var req models.UpdateQueuePriorityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	entry, err := h.queue.UpdatePriority(c.Request().Context(), c.PathParam("id"), &req,
		middleware.UserID(c), middleware.UserName(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// AssignStaff handles POST /api/queue/:id/assign (staff).
func (h *QueueHandler) AssignStaff(c echo.Context) error {
	var req models.AssignStaffRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	if err := h.queue.AssignStaff(c.Request().Context(), c.PathParam("id"), &req,
		middleware.UserID(c), middleware.UserName(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Message: "staff assigned"})
}

// AddNote handles POST /api/queue/:id/note (staff).
func (h *QueueHandler) AddNote(c echo.Context) error {
	var req models.AddNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	if err := h.queue.AddNote(c.Request().Context(), c.PathParam("id"), req.Note,
		middleware.UserID(c), middleware.UserName(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Message: "note added"})
}

// Advance handles POST /api/queue/advance (staff).
func (h *QueueHandler) Advance(c echo.Context) error {
	entry, err := h.queue.AdvanceQueue(c.Request().Context(),
		middleware.UserID(c), middleware.UserName(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// Recalculate handles POST /api/queue/recalculate (staff).
func (h *QueueHandler) Recalculate(c echo.Context) error {
	if err := h.queue.Recalculate(c.Request().Context(), "manual recalculation"); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Message: "queue recalculated"})
}

// ActionLogs handles GET /api/queue/:id/logs (staff).
func (h *QueueHandler) ActionLogs(c echo.Context) error {
	logs, err := h.queue.ActionLogs(c.Request().Context(), c.PathParam("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

// PositionHistory handles GET /api/queue/:id/history (staff).
func (h *QueueHandler) PositionHistory(c echo.Context) error {
	history, err := h.queue.PositionHistory(c.Request().Context(), c.PathParam("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}
