package handlers

import (
	"net/http"

	"queue-system/middleware"
	"queue-system/models"
	"queue-system/services"

	"github.com/labstack/echo/v5"
)

type AdminHandler struct {
	queue *services.QueueService
}

func NewAdminHandler(queue *services.QueueService) *AdminHandler {
	return &AdminHandler{queue: queue}
}

// Configuration handles GET /api/queue/config (staff).
func (h *AdminHandler) Configuration(c echo.Context) error {
	cfg, err := h.queue.Configuration(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// Multipliers handles GET /api/queue/config/multipliers (staff).
func (h *AdminHandler) Multipliers(c echo.Context) error {
	multipliers, err := h.queue.Multipliers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, multipliers)
}

// UpdateConfiguration handles PUT /api/queue/config (admin). Every
// accepted update triggers a full estimate recalculation.
func (h *AdminHandler) UpdateConfiguration(c echo.Context) error {
	var req models.UpdateConfigurationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	cfg, err := h.queue.UpdateConfiguration(c.Request().Context(), &req, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}
