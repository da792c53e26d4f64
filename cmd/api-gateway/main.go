package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/jdu211171/schedule-website-sub003/api/swagger"
	"github.com/jdu211171/schedule-website-sub003/internal/handler"
	internalmiddleware "github.com/jdu211171/schedule-website-sub003/internal/middleware"
	"github.com/jdu211171/schedule-website-sub003/internal/repository"
	"github.com/jdu211171/schedule-website-sub003/internal/service"
	"github.com/jdu211171/schedule-website-sub003/pkg/cache"
	"github.com/jdu211171/schedule-website-sub003/pkg/config"
	"github.com/jdu211171/schedule-website-sub003/pkg/database"
	"github.com/jdu211171/schedule-website-sub003/pkg/logger"
	corsmiddleware "github.com/jdu211171/schedule-website-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/jdu211171/schedule-website-sub003/pkg/middleware/requestid"
	"github.com/jdu211171/schedule-website-sub003/pkg/tracing"
)

// @title Schedule API
// @version 0.1.0
// @description Recurring class series generation and conflict classification
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, series locks disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	publisher := service.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.SeriesTopic, logr)
	defer publisher.Close() //nolint:errcheck

	seriesRepo := repository.NewClassSeriesRepository(db)

	extension := service.NewSeriesExtensionService(
		seriesRepo,
		repository.NewClassSessionRepository(db),
		repository.NewAvailabilityRepository(db),
		repository.NewVacationRepository(db),
		repository.NewClassTypeRepository(db),
		repository.NewSeriesLockRepository(redisClient, cfg.Series.LockTTL, logr),
		publisher,
		metrics,
		validator.New(),
		logr,
		service.SeriesExtensionConfig{
			Location:         cfg.Series.Location,
			MaxHorizonMonths: cfg.Series.MaxHorizonMonths,
		},
	)

	sweepCfg := service.SeriesSweepConfig{
		HorizonMonths: cfg.Sweep.HorizonMonths,
		Workers:       cfg.Sweep.Workers,
		Retries:       cfg.Sweep.Retries,
		RetryDelay:    30 * time.Second,
	}
	if cfg.Sweep.Enabled {
		sweepCfg.Interval = cfg.Sweep.Interval
	}
	sweeper := service.NewSeriesSweepService(extension, seriesRepo, metrics, logr, sweepCfg)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	deps := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	metricsHandler := handler.NewMetricsHandler(metrics, deps)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	seriesHandler := handler.NewSeriesExtensionHandler(extension, sweeper, cfg.Series.DefaultHorizonMonths)
	api := r.Group(cfg.APIPrefix)
	api.POST("/class-series/sweep", seriesHandler.Sweep)
	api.POST("/class-series/:id/preview", seriesHandler.Preview)
	api.POST("/class-series/:id/extend", seriesHandler.Extend)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(r, cfg.Tracing.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Error("tracing shutdown failed", zap.Error(err))
	}
}
