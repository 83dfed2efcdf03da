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

	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/config"
	"github.com/mamadbah2/breadlog/internal/repository/kv"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/repository/mongodb"
	"github.com/mamadbah2/breadlog/internal/repository/sheets"
	"github.com/mamadbah2/breadlog/internal/scheduler"
	"github.com/mamadbah2/breadlog/internal/server/handlers"
	"github.com/mamadbah2/breadlog/internal/server/router"
	"github.com/mamadbah2/breadlog/internal/service/chart"
	"github.com/mamadbah2/breadlog/internal/service/export"
	productionsvc "github.com/mamadbah2/breadlog/internal/service/production"
	reportingsvc "github.com/mamadbah2/breadlog/internal/service/reporting"
	"github.com/mamadbah2/breadlog/pkg/clients/webhook"
	"github.com/mamadbah2/breadlog/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("failed to load timezone", zap.Error(err))
	}
	clock := func() time.Time { return time.Now().In(loc) }

	backend, archive, closeBackend, err := openBackend(context.Background(), *cfg)
	if err != nil {
		baseLogger.Fatal("failed to init storage backend", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := closeBackend(context.Background()); err != nil {
			baseLogger.Error("failed to close storage backend", zap.Error(err))
		}
	}()
	baseLogger.Info("storage backend ready", zap.String("driver", cfg.Storage.Driver))

	store := ledger.NewStore(backend, baseLogger.Named("repo.ledger"))
	workspace := productionsvc.NewService(store, baseLogger.Named("svc.production"), clock)
	reportingSvc := reportingsvc.NewService(store, baseLogger.Named("svc.reporting"), clock)
	chartHandle := chart.NewHandle(chart.DatasetRenderer{}, baseLogger.Named("svc.chart"))

	sinks := scheduler.Sinks{}
	if archive != nil {
		sinks.Archive = archive
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks.Publisher = export.NewSheetsPublisher(sheetsRepo, cfg.Sheets.Range, baseLogger.Named("svc.export"))
		baseLogger.Info("google sheets publishing enabled")
	} else {
		baseLogger.Warn("google sheets credentials missing, daily reports will not be published")
	}
	if cfg.Webhook.Enabled() {
		sinks.Notifier = webhook.NewClient(cfg.Webhook)
		baseLogger.Info("report webhook enabled")
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, workspace, reportingSvc, sinks, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if locker, ok := backend.(scheduler.Locker); ok {
		sched.WithLocker(locker)
		baseLogger.Info("daily report lock enabled")
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	engine := router.New(
		cfg.Server,
		handlers.NewProductionHandler(workspace, baseLogger.Named("handlers.production")),
		handlers.NewReportHandler(reportingSvc, store, chartHandle, baseLogger.Named("handlers.reports")),
		baseLogger.Named("router"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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
	if err := workspace.FlushAll(shutdownCtx); err != nil {
		baseLogger.Error("failed to save open drafts", zap.Error(err))
	}
	if err := chartHandle.Close(); err != nil {
		baseLogger.Warn("failed to dispose chart", zap.Error(err))
	}
}

// openBackend selects the key-value backend. Only the mongo driver also
// provides a report archive.
func openBackend(ctx context.Context, cfg config.Config) (kv.Backend, mongodb.ReportArchive, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return kv.NewMemoryBackend(), nil, noop, nil
	case config.DriverFile:
		backend, err := kv.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, nil, err
		}
		return backend, nil, noop, nil
	case config.DriverRedis:
		backend, err := kv.NewRedisBackend(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		return backend, nil, func(context.Context) error { return backend.Close() }, nil
	case config.DriverMongo:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo, repo.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
