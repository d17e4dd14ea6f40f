package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/OG0914/cost-management-sub000/internal/app"
	"github.com/OG0914/cost-management-sub000/internal/observability"
	"github.com/OG0914/cost-management-sub000/internal/platform/cache"
	"github.com/OG0914/cost-management-sub000/internal/platform/db"
	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/quotation"
	"github.com/OG0914/cost-management-sub000/internal/shared"
	"github.com/OG0914/cost-management-sub000/internal/standardcost"
	"github.com/OG0914/cost-management-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	engine, err := pricing.NewEngine(cfg.PricingConfig())
	if err != nil {
		logger.Error("init pricing engine", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	reviewRecorder := shared.NewReviewRecorder(pool, logger)
	coefficients := quotation.StaticCoefficients{Coefficient: cfg.MaterialCoefficient}

	quotationRepo := quotation.NewRepository(pool)
	quotationService := quotation.NewService(quotationRepo, engine, coefficients, reviewRecorder, logger)
	quotationHandler := quotation.NewHandler(logger, quotationService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	ledgerRepo := standardcost.NewRepository(pool)
	ledgerCache := standardcost.NewCache(redisClient, cfg.CacheTTL)
	ledgerService := standardcost.NewService(ledgerRepo, quotationService, ledgerCache, jobClient, logger)
	ledgerHandler := standardcost.NewHandler(logger, ledgerService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		QuotationHandler:    quotationHandler,
		StandardCostHandler: ledgerHandler,
		JobHandler:          jobHandler,
		Pool:                pool,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
