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
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/config"
	"github.com/mamadbah2/shiftlog/internal/metrics"
	"github.com/mamadbah2/shiftlog/internal/repository"
	"github.com/mamadbah2/shiftlog/internal/repository/memory"
	"github.com/mamadbah2/shiftlog/internal/repository/mongodb"
	"github.com/mamadbah2/shiftlog/internal/repository/sheets"
	"github.com/mamadbah2/shiftlog/internal/repository/sqlstore"
	"github.com/mamadbah2/shiftlog/internal/scheduler"
	"github.com/mamadbah2/shiftlog/internal/server/handlers"
	"github.com/mamadbah2/shiftlog/internal/server/router"
	catalogsvc "github.com/mamadbah2/shiftlog/internal/service/catalog"
	exchangesvc "github.com/mamadbah2/shiftlog/internal/service/exchange"
	notifysvc "github.com/mamadbah2/shiftlog/internal/service/notify"
	planningsvc "github.com/mamadbah2/shiftlog/internal/service/planning"
	recordsvc "github.com/mamadbah2/shiftlog/internal/service/records"
	reportingsvc "github.com/mamadbah2/shiftlog/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/shiftlog/pkg/clients/whatsapp"
	"github.com/mamadbah2/shiftlog/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := openStore(context.Background(), cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to init record store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close record store", zap.Error(err))
		}
	}()

	var sheetRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, mirror disabled")
	}

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, weekly report delivery disabled")
	}

	m := metrics.New()

	recordSvc := recordsvc.NewService(store, store, m, baseLogger.Named("svc.records"))
	exchangeSvc := exchangesvc.NewService(recordSvc, m, baseLogger.Named("svc.exchange"))
	catalogSvc := catalogsvc.NewService(store, store, store, store, baseLogger.Named("svc.catalog"))
	planningSvc := planningsvc.NewService(store, store, baseLogger.Named("svc.planning"))
	reportingSvc := reportingsvc.NewService(store, sheetRepo, baseLogger.Named("svc.reporting"))
	notifier := notifysvc.NewWhatsAppNotifier(cfg.WhatsApp, whatsClient, baseLogger.Named("svc.notify"))

	engine, err := router.New(router.Handlers{
		Records: handlers.NewRecordHandler(recordSvc, exchangeSvc, baseLogger.Named("handlers.records")),
		Catalog: handlers.NewCatalogHandler(catalogSvc, planningSvc, baseLogger.Named("handlers.catalog")),
		Reports: handlers.NewReportHandler(reportingSvc, notifier, baseLogger.Named("handlers.reports")),
	}, cfg.Server, m, baseLogger.Named("router"))
	if err != nil {
		baseLogger.Fatal("failed to init router", zap.Error(err))
	}

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, notifier, m, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
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

// openStore connects the backend selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, records are lost on restart")
		return memory.NewStore(), nil
	case config.DriverMongoDB:
		return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	case config.DriverSQLite, config.DriverPostgres:
		return sqlstore.Open(cfg.Store.Driver, cfg.Store.DSN, logger.Named("sql"))
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
