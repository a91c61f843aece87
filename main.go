package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"queue-system/config"
	"queue-system/handlers"
	"queue-system/kafka"
	"queue-system/logger"
	"queue-system/middleware"
	"queue-system/models"
	"queue-system/services"
	"queue-system/store"
	"queue-system/utils"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	st, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Seed(&models.QueueConfiguration{
		MaxConcurrentOrders:              cfg.MaxConcurrentOrders,
		AvgPreparationTimePerItem:        cfg.AvgPreparationTimePerItem,
		BufferTime:                       cfg.BufferTime,
		ExpressQueueEnabled:              true,
		ExpressQueueMaxItems:             cfg.ExpressQueueMaxItems,
		TokenExpiryTime:                  cfg.TokenExpiryTime,
		AutoNotificationEnabled:          cfg.AutoNotificationEnabled,
		NotificationPositionThreshold:    cfg.NotificationPositionThreshold,
		NotificationAlmostReadyThreshold: cfg.NotificationAlmostReadyThreshold,
	}); err != nil {
		return err
	}

	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("connected to redis", zap.String("addr", cfg.RedisURL))

	cache := utils.NewQueueCache(redisClient, cfg.EntryCacheTTL, cfg.SnapshotCacheTTL, log)

	var notifier services.Notifier = services.NopNotifier{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig), log)
		log.Info("pubnub notifications enabled")
	}

	producer := kafka.NewProducer(cfg, log)
	defer producer.Close()

	tokens := services.NewTokenService(st, log)
	queue := services.NewQueueService(st, tokens, producer, notifier, cache, services.StaticMenuClient{Minutes: cfg.AvgPreparationTimePerItem}, log)

	stats := services.NewStatsService(st, cfg.StatsInterval, log)
	queue.SetStatsRefresh(stats.RefreshAsync)
	stats.Run()
	defer stats.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := services.NewSweeper(queue, cfg.ExpirySweepInterval, log)
	sweeper.Run(ctx)
	defer sweeper.Stop()

	consumer := kafka.NewConsumer(cfg, queue, log)
	consumer.Run(ctx)
	defer consumer.Stop()

	e := buildRouter(queue, stats, redisClient)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("queue service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRouter(queue *services.QueueService, stats *services.StatsService, redisClient *redis.Client) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Identity())

	queueHandler := handlers.NewQueueHandler(queue, stats)
	adminHandler := handlers.NewAdminHandler(queue)

	// Public surface: display board, token lookup, stats.
	e.GET("/api/queue", queueHandler.ActiveEntries)
	e.GET("/api/queue/current", queueHandler.CurrentQueue)
	e.GET("/api/queue/position/:token", queueHandler.Position)
	e.GET("/api/queue/token/:token", queueHandler.EntryByToken)
	e.GET("/api/queue/stats", queueHandler.Stats)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Authenticated surface.
	authed := e.Group("/api/queue", middleware.RequireUser())
	authed.POST("", queueHandler.CreateEntry)
	authed.GET("/order/:orderId", queueHandler.EntryByOrderID)
	authed.GET("/user/me", queueHandler.MyEntries)

	// Staff surface.
	staff := e.Group("/api/queue", middleware.RequireStaff())
	staff.PATCH("/:id/status", queueHandler.UpdateStatus)
	staff.PUT("/:id/priority", queueHandler.UpdatePriority)
	staff.POST("/:id/assign", queueHandler.AssignStaff)
	staff.POST("/:id/note", queueHandler.AddNote)
	staff.POST("/advance", queueHandler.Advance)
	staff.POST("/recalculate", queueHandler.Recalculate)
	staff.GET("/:id/logs", queueHandler.ActionLogs)
	staff.GET("/:id/history", queueHandler.PositionHistory)
	staff.GET("/stats/daily/:date", queueHandler.DailyStats)
	staff.GET("/stats/hourly/:date/:hour", queueHandler.HourlyStats)
	staff.GET("/config", adminHandler.Configuration)
	staff.GET("/config/multipliers", adminHandler.Multipliers)

	// Admin surface.
	admin := e.Group("/api/queue", middleware.RequireAdmin())
	admin.PUT("/config", adminHandler.UpdateConfiguration)

	return e
}
