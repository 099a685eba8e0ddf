package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"docboard/config"
	"docboard/internal/api/handler"
	"docboard/internal/api/router"
	"docboard/internal/availability"
	"docboard/internal/repository"
	"docboard/internal/service"
	"docboard/pkg/database"
	"docboard/pkg/events"
	"docboard/pkg/jwt"
	applogger "docboard/pkg/logger"
	"docboard/pkg/redis"
	"docboard/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting docboard",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Scheduling.Timezone),
	)

	// 3. tracing
	shutdownTracing, err := telemetry.Setup(context.Background(), &cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("init tracing failed", zap.Error(err))
	}

	// 4. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	logger.Info("database connected")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 5. redis (optional: run degraded when unreachable)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable; slot cache, shared rate limits and token revocation are disabled", zap.Error(err))
		rdb = nil
	}

	deps := service.Deps{Config: cfg, Logger: logger}
	infra := router.Infra{DB: db}
	if rdb != nil {
		deps.Cache, deps.Locker, deps.Blacklist = rdb, rdb, rdb
		infra.Blacklist, infra.RateCounter, infra.Pinger = rdb, rdb, rdb.Ping
	}

	// 6. JWT, events, calculator
	jwtMgr := jwt.NewManager(&cfg.Auth)
	publisher := events.NewPublisher(&cfg.Events, logger)

	calc, err := availability.NewCalculator(availability.Config{
		SlotMinutes:  cfg.Scheduling.SlotMinutes,
		DefaultStart: cfg.Scheduling.DefaultStart,
		DefaultEnd:   cfg.Scheduling.DefaultEnd,
		Location:     cfg.Scheduling.Location(),
	})
	if err != nil {
		logger.Fatal("init availability calculator failed", zap.Error(err))
	}

	// 7. Repository → Service → Handler
	deps.Repo = repository.NewRepository(db)
	deps.JWT = jwtMgr
	deps.Calculator = calc
	deps.Publisher = publisher
	svc := service.NewService(deps)
	h := handler.NewHandler(cfg, svc)

	// 8. router
	engine := router.Setup(cfg, h, jwtMgr, infra, logger)

	// 9. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(engine, "docboard"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		logger.Warn("close event publisher failed", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("flush traces failed", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database failed", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
