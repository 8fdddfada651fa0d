package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/bambinounos/eia/internal/analysis"
	"github.com/bambinounos/eia/internal/api"
	"github.com/bambinounos/eia/internal/cli"
	"github.com/bambinounos/eia/internal/config"
	"github.com/bambinounos/eia/internal/database"
	"github.com/bambinounos/eia/internal/services"
)

func main() {
	// Optional .env for local development, ignored when absent
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Check if running CLI command
	if len(os.Args) > 1 {
		cli.Execute(db, cfg)
		return
	}

	analyzer, err := analysis.NewAnalyzerFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize analyzer: %v", err)
	}

	ledgerService := services.NewLedgerService(db)
	opportunityService := services.NewOpportunityService(db)
	logService := services.NewLogServiceWithLevel(db, cfg.LogLevel)
	scanner := services.NewScanner(cfg, ledgerService, opportunityService, logService, analyzer)

	// Periodic scan loop; manual runs through the task API share the same
	// per-account locks
	scheduler := services.NewScanScheduler(scanner, cfg.ScanInterval())
	scheduler.Start()
	defer scheduler.Stop()

	// Start API server
	router, err := api.SetupRouter(cfg, scanner, opportunityService, logService)
	if err != nil {
		log.Fatalf("Failed to setup router: %v", err)
	}

	log.Printf("Starting EIA server on %s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Database: %s", cfg.Database.URL)
	log.Printf("Scan interval: %v", cfg.ScanInterval())
	if err := router.Run(cfg.Server.Host + ":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
