package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"storycoin-backend/internal/config"
	"storycoin-backend/internal/jobs"
	"storycoin-backend/internal/logger"
	"storycoin-backend/internal/repository/postgres"
	"storycoin-backend/internal/scheduler"
	"storycoin-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply database migrations before starting")
	runOnce := flag.Bool("run-once", false, "Run the rental sweep once and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Storycoin rental sweeper...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	if *migrate {
		if err := store.Migrate(context.Background()); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Database migrations applied")
	}

	// Initialize Services
	cache := service.NewBalanceCache()
	clock := service.SystemClock{}
	retrier := service.NewRetrier(
		cfg.Retry.MaxRetries,
		time.Duration(cfg.Retry.BackoffBaseMS)*time.Millisecond,
		time.Duration(cfg.Retry.BackoffCapMS)*time.Millisecond,
	)
	unlock := service.NewUnlockChecker(nil, cfg.Rental.PublishFloorCoins, clock)

	ledgerService := service.NewLedgerService(store, cache, retrier, clock)
	rentalService := service.NewRentalService(store, cache, retrier, clock, unlock, cfg.Rental.TermDays)

	jobServices := &jobs.Services{
		Rental: rentalService,
		Ledger: ledgerService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single sweep
	if *runOnce {
		logger.Info("Running rental sweep once")
		jobRunner.ExpireRentals()
		logger.Info("Rental sweep completed")
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Rental sweeper is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down rental sweeper...")
	cronScheduler.Stop()
	logger.Info("Rental sweeper stopped. Goodbye!")
}
