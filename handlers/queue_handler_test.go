package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"queue-system/middleware"
	"queue-system/models"
	"queue-system/services"
	"queue-system/store"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	echo  *echo.Echo
	queue *services.QueueService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "queue.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Seed(&models.QueueConfiguration{
		MaxConcurrentOrders:       10,
		AvgPreparationTimePerItem: 5,
		BufferTime:                2,
		ExpressQueueEnabled:       true,
		ExpressQueueMaxItems:      3,
		TokenExpiryTime:           60,
	}))

	tokens := services.NewTokenService(st, zap.NewNop())
	queue := services.NewQueueService(st, tokens, services.NopPublisher{}, services.NopNotifier{},
		services.NopCache{}, services.StaticMenuClient{Minutes: 5}, zap.NewNop())
	stats := services.NewStatsService(st, time.Minute, zap.NewNop())

	queueHandler := NewQueueHandler(queue, stats)
	adminHandler := NewAdminHandler(queue)

	e := echo.New()
	e.Use(middleware.Identity())

	e.GET("/api/queue", queueHandler.ActiveEntries)
	e.GET("/api/queue/current", queueHandler.CurrentQueue)
	e.GET("/api/queue/position/:token", queueHandler.Position)
	e.GET("/api/queue/token/:token", queueHandler.EntryByToken)
	e.GET("/api/queue/stats", queueHandler.Stats)

	authed := e.Group("/api/queue", middleware.RequireUser())
	authed.POST("", queueHandler.CreateEntry)
	authed.GET("/user/me", queueHandler.MyEntries)

	staff := e.Group("/api/queue", middleware.RequireStaff())
	staff.PATCH("/:id/status", queueHandler.UpdateStatus)
	staff.PUT("/:id/priority", queueHandler.UpdatePriority)
	staff.POST("/advance", queueHandler.Advance)
	staff.GET("/:id/logs", queueHandler.ActionLogs)
	staff.GET("/config", adminHandler.Configuration)

	admin := e.Group("/api/queue", middleware.RequireAdmin())
	admin.PUT("/config", adminHandler.UpdateConfiguration)

	return &testServer{echo: e, queue: queue}
}

type reqOption func(*http.Request)

func asUser(id string) reqOption {
	return func(r *http.Request) {
		r.Header.Set(middleware.HeaderUserID, id)
		r.Header.Set(middleware.HeaderUserName, "Test User")
	}
}

func asStaff(id string) reqOption {
	return func(r *http.Request) {
		asUser(id)(r)
		r.Header.Set(middleware.HeaderUserRole, middleware.RoleStaff)
	}
}

func asAdmin(id string) reqOption {
	return func(r *http.Request) {
		asUser(id)(r)
		r.Header.Set(middleware.HeaderUserRole, middleware.RoleAdmin)
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(data)
	} else {
		payload = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createEntry(t *testing.T, orderID string) *models.QueueEntry {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/queue", models.CreateQueueEntryRequest{
		OrderID:   orderID,
		ItemCount: 5,
	}, asUser("user-1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry models.QueueEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	return &entry
}

func TestCreateEntry_HTTP(t *testing.T) {
	s := newTestServer(t)

	entry := s.createEntry(t, "order-1")
	assert.Equal(t, "order-1", entry.OrderID)
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, 1, entry.Position)
	assert.Regexp(t, `^[A-Z]\d{3}$`, entry.TokenNumber)
}

func TestCreateEntry_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/queue", models.CreateQueueEntryRequest{
		OrderID: "order-1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateEntry_DuplicateConflict(t *testing.T) {
	s := newTestServer(t)

	s.createEntry(t, "order-1")
	rec := s.do(t, http.MethodPost, "/api/queue", models.CreateQueueEntryRequest{
		OrderID:   "order-1",
		ItemCount: 5,
	}, asUser("user-1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPosition_HTTP(t *testing.T) {
	s := newTestServer(t)

	entry := s.createEntry(t, "order-1")
	rec := s.do(t, http.MethodGet, "/api/queue/position/"+entry.TokenNumber, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pos models.QueuePositionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.Equal(t, 1, pos.Position)
	assert.Equal(t, 0, pos.PeopleAhead)
}

func TestPosition_UnknownToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/queue/position/Z999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentQueue_HTTP(t *testing.T) {
	s := newTestServer(t)

	s.createEntry(t, "order-1")
	s.createEntry(t, "order-2")

	rec := s.do(t, http.MethodGet, "/api/queue/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot models.CurrentQueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot.Waiting, 2)
	assert.Equal(t, 2, snapshot.TotalActive)
}

func TestActiveEntries_HTTP(t *testing.T) {
	s := newTestServer(t)

	s.createEntry(t, "order-1")
	s.createEntry(t, "order-2")

	// No identity headers: the active list is public.
	rec := s.do(t, http.MethodGet, "/api/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.QueueEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, 2, entries[1].Position)
}

func TestUpdateStatus_HTTP(t *testing.T) {
	s := newTestServer(t)
	entry := s.createEntry(t, "order-1")

	rec := s.do(t, http.MethodPatch, "/api/queue/"+entry.ID+"/status",
		models.UpdateQueueStatusRequest{Status: models.StatusInProgress}, asStaff("staff-1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.QueueEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.StatusInProgress, updated.Status)
}

func TestUpdateStatus_RequiresStaffRole(t *testing.T) {
	s := newTestServer(t)
	entry := s.createEntry(t, "order-1")

	rec := s.do(t, http.MethodPatch, "/api/queue/"+entry.ID+"/status",
		models.UpdateQueueStatusRequest{Status: models.StatusInProgress}, asUser("user-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	s := newTestServer(t)
	entry := s.createEntry(t, "order-1")

	rec := s.do(t, http.MethodPatch, "/api/queue/"+entry.ID+"/status",
		models.UpdateQueueStatusRequest{Status: models.StatusCompleted}, asStaff("staff-1"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateStatus_UnknownEntry(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPatch, "/api/queue/ghost/status",
		models.UpdateQueueStatusRequest{Status: models.StatusInProgress}, asStaff("staff-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdvance_EmptyQueueConflict(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/queue/advance", nil, asStaff("staff-1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestActionLogs_HTTP(t *testing.T) {
	s := newTestServer(t)
	entry := s.createEntry(t, "order-1")

	rec := s.do(t, http.MethodPatch, "/api/queue/"+entry.ID+"/status",
		models.UpdateQueueStatusRequest{Status: models.StatusInProgress}, asStaff("staff-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/queue/"+entry.ID+"/logs", nil, asStaff("staff-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var logs []models.StaffActionLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "staff-1", logs[0].StaffID)
}

func TestUpdateConfiguration_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)

	maxOrders := 20
	body := models.UpdateConfigurationRequest{MaxConcurrentOrders: &maxOrders}

	rec := s.do(t, http.MethodPut, "/api/queue/config", body, asStaff("staff-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/queue/config", body, asAdmin("admin-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg models.QueueConfiguration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 20, cfg.MaxConcurrentOrders)
}

func TestMyEntries_HTTP(t *testing.T) {
	s := newTestServer(t)

	s.createEntry(t, "order-1")
	s.createEntry(t, "order-2")

	rec := s.do(t, http.MethodGet, "/api/queue/user/me", nil, asUser("user-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.QueueEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = s.do(t, http.MethodGet, "/api/queue/user/me", nil, asUser("someone-else"))
	require.Equal(t, http.StatusOK, rec.Code)
	entries = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}
