package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/afribourse/tradesim/internal/clients/brvm"
	"github.com/afribourse/tradesim/internal/config"
	"github.com/afribourse/tradesim/internal/database"
	"github.com/afribourse/tradesim/internal/events"
	"github.com/afribourse/tradesim/internal/locking"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	portfoliohandlers "github.com/afribourse/tradesim/internal/modules/portfolio/handlers"
	"github.com/afribourse/tradesim/internal/modules/reporting"
	reportinghandlers "github.com/afribourse/tradesim/internal/modules/reporting/handlers"
	"github.com/afribourse/tradesim/internal/modules/trading"
	tradinghandlers "github.com/afribourse/tradesim/internal/modules/trading/handlers"
	"github.com/afribourse/tradesim/internal/modules/valuation"
	valuationhandlers "github.com/afribourse/tradesim/internal/modules/valuation/handlers"
	"github.com/afribourse/tradesim/internal/reliability"
	"github.com/afribourse/tradesim/internal/scheduler"
	"github.com/afribourse/tradesim/internal/server"
	"github.com/afribourse/tradesim/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting tradesim")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	marketTZ, err := time.LoadLocation(cfg.MarketTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.MarketTimezone).Msg("Invalid market timezone")
	}

	// Shared infrastructure
	eventManager := events.NewManager(log)
	lockManager := locking.NewManager(log)
	quoteClient := brvm.NewClient(cfg.MarketDataURL, cfg.QuoteTimeout, log)

	// Repositories
	portfolioRepo := portfolio.NewPortfolioRepository(db.Conn(), log)
	positionRepo := portfolio.NewPositionRepository(db.Conn(), log)
	transactionRepo := trading.NewTransactionRepository(db.Conn(), log)
	snapshotRepo := valuation.NewSnapshotRepository(db.Conn(), log)

	// Services
	portfolioService := portfolio.NewService(portfolioRepo, positionRepo, cfg.InitialBalance, log)
	tradingEngine := trading.NewEngine(
		trading.Config{
			PriceTolerance: cfg.PriceTolerance,
			MaxQuoteAge:    cfg.MaxQuoteAge,
			QuoteTimeout:   cfg.QuoteTimeout,
			LockTimeout:    cfg.LockTimeout,
		},
		db,
		portfolioRepo,
		positionRepo,
		transactionRepo,
		quoteClient,
		lockManager,
		eventManager,
		log,
	)
	valuationService := valuation.NewService(
		portfolioRepo, positionRepo, snapshotRepo, quoteClient, eventManager, marketTZ, log,
	)
	reportingService := reporting.NewService(
		portfolioRepo, positionRepo, transactionRepo, snapshotRepo, quoteClient, log,
	)

	// Initialize scheduler
	sched := scheduler.New(log)
	snapshotJob := valuation.NewSnapshotJob(valuationService, log)
	if err := sched.AddJob(cfg.SnapshotSchedule, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}
	maintenanceJob := reliability.NewMaintenanceJob(db.Conn(), filepath.Dir(cfg.DatabasePath), log)
	if err := sched.AddJob(cfg.MaintenanceSchedule, maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DevMode: cfg.DevMode,
		Modules: []server.RouteRegistrar{
			portfoliohandlers.NewHandler(portfolioService, log),
			tradinghandlers.NewHandler(tradingEngine, portfolioService, log),
			valuationhandlers.NewHandler(valuationService, portfolioService, log),
			reportinghandlers.NewHandler(reportingService, portfolioService, log),
		},
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
