package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/auth"
	"bilancio/internal/cache"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	applog "bilancio/internal/log"
	"bilancio/internal/report"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err)
		os.Exit(1)
	}

	store := cli.OpenStore(context.Background(), logger, cfg)
	defer store.Close()

	tokens := auth.NewTokens(cfg.SessionSecret, cfg.SessionTTL, nil)
	authSvc := auth.NewService(store, tokens)
	reports := report.NewService(report.WithLocation(loc))

	var reportCache *cache.Reports
	if cfg.ReportCacheSize > 0 && cfg.ReportCacheTTL > 0 {
		reportCache = cache.NewReports(cfg.ReportCacheSize, cfg.ReportCacheTTL)
	}

	var (
		exporter   apphttp.ExportPublisher
		amqpClient *amqp.Client
	)
	if cfg.ExportEnabled() {
		amqpClient = amqp.New(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Logger)
		exporter = amqpClient
		logger.Info("Report export enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP_URL not set, report export disabled")
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Store:              store,
		Auth:               authSvc,
		Reports:            reports,
		Cache:              reportCache,
		Exporter:           exporter,
		Logger:             logger,
		SecureCookies:      cfg.SecureCookies,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
	})

	logger.Info("Starting bilancio server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
