package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxi-insights-api/analytics"
	"taxi-insights-api/config"
	"taxi-insights-api/handlers"
	"taxi-insights-api/logging"
	"taxi-insights-api/middleware"
	"taxi-insights-api/services"
	"taxi-insights-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(cfg.Store, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open trip store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer backend.Close()

	// Alerts are optional: without redis the bus drops hotspots and the
	// websocket reports the stream as unavailable.
	alerts, err := services.NewAlertBus(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, hotspot alerts disabled", zap.Error(err))
	}
	defer alerts.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer limiter.Stop()

	svc := analytics.NewService(backend, logger)
	router := newRouter(cfg, svc, alerts, limiter, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, svc *analytics.Service, alerts *services.AlertBus, limiter *middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Taxi Insights API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(limiter.Middleware())
	api.Use(middleware.QueryTimeout(cfg.Server.QueryTimeout))
	handlers.NewInsightsHandler(svc, alerts, logger, cfg.Server.DashboardConcurrency).Register(api)

	router.GET("/ws/alerts", handlers.AlertWebSocket(alerts, logger))

	return router
}
