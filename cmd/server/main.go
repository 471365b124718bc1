package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/crosslister/backend/internal/application/sync"
	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/infrastructure/bookkeeping"
	"github.com/crosslister/backend/internal/infrastructure/cache"
	"github.com/crosslister/backend/internal/infrastructure/config"
	"github.com/crosslister/backend/internal/infrastructure/export"
	"github.com/crosslister/backend/internal/infrastructure/logger"
	"github.com/crosslister/backend/internal/infrastructure/marketplace"
	"github.com/crosslister/backend/internal/infrastructure/persistence"
	"github.com/crosslister/backend/internal/infrastructure/scheduler"
	"github.com/crosslister/backend/internal/interfaces/http/dto"
	"github.com/crosslister/backend/internal/interfaces/http/handler"
	"github.com/crosslister/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting crosslister backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database, with GORM logging backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)

	// Idempotency store for externally discovered sales (Redis when enabled)
	idemStore, err := cache.NewIdempotencyStore(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Marketplace adapters. Browser-automated platforms share one Chrome
	// session; the registry serializes calls per adapter.
	browser := marketplace.NewBrowserSession(&cfg.Browser, log)
	defer func() {
		if err := browser.Close(); err != nil {
			log.Error("Error closing browser session", zap.Error(err))
		}
	}()

	adapters, err := buildAdapters(cfg, browser, log)
	if err != nil {
		log.Fatal("Failed to build marketplace adapters", zap.Error(err))
	}
	registry, err := marketplace.NewAdapterRegistry(adapters...)
	if err != nil {
		log.Fatal("Failed to build adapter registry", zap.Error(err))
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Error("Error closing adapters", zap.Error(err))
		}
	}()
	log.Info("Marketplace adapters registered",
		zap.Int("count", len(adapters)),
	)

	// Sale emission consumers
	var ledger appsync.Ledger
	if cfg.Ledger.Enabled {
		client, err := bookkeeping.NewLedgerClient(&cfg.Ledger, log)
		if err != nil {
			log.Fatal("Failed to create ledger client", zap.Error(err))
		}
		ledger = client
	}
	var rowExporter appsync.RowExporter
	if cfg.Export.Enabled {
		exporter, err := export.NewS3RowExporter(&cfg.Export, log)
		if err != nil {
			log.Fatal("Failed to create sale row exporter", zap.Error(err))
		}
		rowExporter = exporter
	}
	emitter := appsync.NewEmitter(saleRepo, ledger, rowExporter, log)

	// Application services
	coordinator := appsync.NewCoordinator(productRepo, listingRepo, saleRepo, registry, emitter, log)
	sweeper := appsync.NewSweeper(coordinator, productRepo, listingRepo, registry, idemStore, log)

	// Background reconciliation sweeps
	var sweepScheduler *scheduler.SweepScheduler
	if cfg.Sync.Enabled {
		runner := scheduler.NewSweepRunner(sweeper, emitter, cfg.Sync.SoldCheck, cfg.Sync.SoldCheckSince, log)
		sweepScheduler, err = scheduler.NewSweepScheduler(scheduler.SweepSchedulerConfig{
			Interval:     cfg.Sync.Interval,
			SweepTimeout: cfg.Sync.SweepTimeout,
			RunOnStart:   true,
		}, runner, log)
		if err != nil {
			log.Fatal("Failed to create sweep scheduler", zap.Error(err))
		}
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sweepScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping sweep scheduler", zap.Error(err))
			}
		}()
		log.Info("Sweep scheduler started",
			zap.Duration("interval", cfg.Sync.Interval),
			zap.Bool("sold_check", cfg.Sync.SoldCheck),
		)
	}

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidations(); err != nil {
		log.Fatal("Failed to register request validations", zap.Error(err))
	}

	r := router.New(log)
	r.Register(
		handler.NewProductHandler(productRepo, listingRepo, coordinator, log),
		handler.NewSyncHandler(coordinator, sweeper, registry, sweepScheduler, log),
		handler.NewSalesHandler(saleRepo, emitter, log),
	)
	engine := r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildAdapters creates one adapter per enabled platform
func buildAdapters(cfg *config.Config, browser *marketplace.BrowserSession, log *zap.Logger) ([]listing.Adapter, error) {
	var adapters []listing.Adapter

	if cfg.Marktplaats.Enabled {
		adapter, err := marketplace.NewMarktplaatsAdapter(&marketplace.MarktplaatsConfig{
			ClientID:     cfg.Marktplaats.ClientID,
			ClientSecret: cfg.Marktplaats.ClientSecret,
			BaseURL:      cfg.Marktplaats.BaseURL,
			Timeout:      cfg.Marktplaats.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}
	if cfg.Vinted.Enabled {
		adapter, err := marketplace.NewVintedAdapter(browser, &cfg.Vinted, log)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}
	if cfg.Depop.Enabled {
		adapter, err := marketplace.NewDepopAdapter(browser, &cfg.Depop, log)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}
	if cfg.Facebook.Enabled {
		adapter, err := marketplace.NewFacebookAdapter(browser, &cfg.Facebook, log)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	return adapters, nil
}
