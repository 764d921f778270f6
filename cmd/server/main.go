package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api"
	"github.com/ndewijer/Yield-Bank-Backend/internal/app"
	"github.com/ndewijer/Yield-Bank-Backend/internal/config"
	"github.com/ndewijer/Yield-Bank-Backend/internal/database"
	"github.com/ndewijer/Yield-Bank-Backend/internal/logger"
	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
	"github.com/ndewijer/Yield-Bank-Backend/internal/scheduler"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
	"github.com/ndewijer/Yield-Bank-Backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lg := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	lg.Info().Str("version", version.Version).Msg("Starting yield bank backend")

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		lg.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	schemaVersion, err := database.Migrate(context.Background(), db)
	if err != nil {
		lg.Fatal().Err(err).Msg("Failed to migrate database")
	}
	lg.Info().Str("path", cfg.Database.Path).Int64("schema_version", schemaVersion).Msg("Connected to database")

	// Quote pipeline
	pipeline, err := app.NewPipeline(cfg, db, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("Failed to build quote pipeline")
	}
	if !pipeline.KIS.HasCredentials() {
		lg.Warn().Msg("KIS credentials not set, quotes come from the finance page only")
	}
	cadence := market.Cadence{Open: cfg.Refresh.OpenInterval, Closed: cfg.Refresh.ClosedInterval}

	// Create repositories
	holdingRepo := repository.NewHoldingRepository(db)

	// Create services
	systemService := service.NewSystemService(db, pipeline.Features(cfg))
	reconcileService := service.NewReconcileService(
		holdingRepo,
		pipeline.Resolver,
		cfg.Reconcile.Concurrency,
		logger.Component(lg, "reconcile"),
	)
	holdingService := service.NewHoldingService(
		holdingRepo,
		pipeline.Resolver,
		pipeline.Catalog,
		logger.Component(lg, "holding"),
	)
	snapshotService := service.NewSnapshotService(
		holdingRepo,
		reconcileService,
		logger.Component(lg, "snapshot"),
	)

	// Background jobs
	sched := scheduler.New(lg)
	mustAddJob(sched, scheduler.SnapshotSchedule, scheduler.NewSnapshotJob(snapshotService, cadence, nil, lg))
	if pipeline.Catalog.Configured() {
		mustAddJob(sched, scheduler.CatalogSchedule, scheduler.NewCatalogJob(pipeline.Catalog))
		go func() {
			if err := sched.RunNow(scheduler.NewCatalogJob(pipeline.Catalog)); err != nil {
				lg.Warn().Err(err).Msg("Initial catalog load failed")
			}
		}()
	}
	if pipeline.KIS.HasCredentials() {
		mustAddJob(sched, scheduler.TokenWarmupSchedule, scheduler.NewTokenWarmupJob(pipeline.KIS.Tokens()))
	}
	sched.Start()

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Holding:   holdingService,
		Reconcile: reconcileService,
		Catalog:   pipeline.Catalog,
		Resolver:  pipeline.Resolver,
		Cadence:   cadence,
	}, cfg, lg)

	// Create HTTP server. No write timeout: the holding stream is long lived.
	// Hijacked websocket connections are not tracked by Shutdown, so their
	// request context is cancelled when shutdown starts.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	// Start server in a goroutine
	go func() {
		lg.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("Shutting down server...")
	sched.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	lg.Info().Msg("Server exited")
}

func mustAddJob(s *scheduler.Scheduler, schedule string, job scheduler.Job) {
	if err := s.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
	}
}
