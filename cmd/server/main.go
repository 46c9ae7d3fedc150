package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jkoestner/folioflex/internal/api"
	"github.com/jkoestner/folioflex/internal/config"
	"github.com/jkoestner/folioflex/internal/database"
	"github.com/jkoestner/folioflex/internal/marketdata"
	"github.com/jkoestner/folioflex/internal/repository"
	"github.com/jkoestner/folioflex/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	transactionRepo := repository.NewTransactionRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	settingsRepo, err := repository.NewSettingsRepository(db, cfg.Auth.FernetKey)
	if err != nil {
		log.Fatalf("Failed to create settings repository: %v", err)
	}

	// Persist the API key encrypted so restarts don't need the env var
	if key := os.Getenv("INTERNAL_API_KEY"); key != "" && cfg.Auth.FernetKey != "" {
		if err := settingsRepo.SetEncrypted("internal_api_key", key); err != nil {
			log.Fatalf("Failed to store API key: %v", err)
		}
	}
	apiKey := func() string {
		if key, err := settingsRepo.Get("internal_api_key"); err == nil {
			return key
		}
		return os.Getenv("INTERNAL_API_KEY")
	}

	// Create services
	prices := marketdata.NewCache(marketdata.NewYahoo())
	systemService := service.NewSystemService(db)
	portfolioService := service.NewPortfolioService(
		cfg.Portfolios.Entries,
		prices,
		transactionRepo,
		priceRepo,
		snapshotRepo,
	)

	// Build the portfolios before serving
	buildCtx, cancelBuild := context.WithTimeout(context.Background(), 10*time.Minute)
	if err := portfolioService.Refresh(buildCtx); err != nil {
		cancelBuild()
		log.Fatalf("Failed to build portfolios: %v", err)
	}
	cancelBuild()

	// Keep the portfolios fresh on a schedule
	scheduler, err := service.NewScheduler(cfg.Portfolios.RefreshSchedule, portfolioService)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(systemService, portfolioService, cfg, apiKey)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
