package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/gestock/internal/config"
	"github.com/mamadbah2/gestock/internal/repository/csvfile"
	"github.com/mamadbah2/gestock/internal/scheduler"
	"github.com/mamadbah2/gestock/internal/server/handlers"
	"github.com/mamadbah2/gestock/internal/server/router"
	reportingsvc "github.com/mamadbah2/gestock/internal/service/reporting"
	stocksvc "github.com/mamadbah2/gestock/internal/service/stock"
	"github.com/mamadbah2/gestock/pkg/clients/notifier"
	"github.com/mamadbah2/gestock/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := csvfile.NewStore(cfg.Storage.DataDir, baseLogger.Named("repo.csvfile"))
	if err != nil {
		baseLogger.Fatal("failed to init file store", zap.Error(err))
	}

	stockSvc, err := stocksvc.NewService(store, baseLogger.Named("svc.stock"))
	if err != nil {
		baseLogger.Fatal("failed to load collections", zap.Error(err))
	}

	reportingSvc := reportingsvc.NewService(stockSvc, baseLogger.Named("svc.reporting"))

	var notifierClient notifier.Client
	if cfg.Notifier.WebhookURL != "" {
		notifierClient = notifier.NewClient(cfg.Notifier)
		baseLogger.Info("report webhook notifier enabled")
	} else {
		baseLogger.Warn("no report webhook configured, scheduled exports stay local")
	}

	handler := handlers.NewStockHandler(stockSvc, reportingSvc, *cfg, baseLogger.Named("handlers.stock"))
	engine := router.New(handler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, notifierClient, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
