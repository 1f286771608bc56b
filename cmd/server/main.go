package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/service"
	"github.com/clearclaim/claims-engine/internal/config"
	"github.com/clearclaim/claims-engine/internal/decision"
	"github.com/clearclaim/claims-engine/internal/duplicate"
	"github.com/clearclaim/claims-engine/internal/export"
	"github.com/clearclaim/claims-engine/internal/infrastructure/llm"
	"github.com/clearclaim/claims-engine/internal/infrastructure/persistence/repository"
	"github.com/clearclaim/claims-engine/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/clearclaim/claims-engine/internal/interfaces/http"
	"github.com/clearclaim/claims-engine/internal/rules"
	"github.com/clearclaim/claims-engine/internal/scoring"
	"github.com/clearclaim/claims-engine/pkg/database"
	"github.com/clearclaim/claims-engine/pkg/utils"
)

func main() {
	// Pick up a local .env before the config layer reads the environment.
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting claims decision engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	txManager := sqlite.NewDB(db.DB, logger)
	claimRepo := repository.NewClaimRepository(db.DB, logger)
	documentRepo := repository.NewDocumentRepository(db.DB, logger)
	employeeRepo := repository.NewEmployeeRepository(db.DB, logger)
	policyRepo := repository.NewPolicyRepository(db.DB, logger)
	settingsRepo := repository.NewSettingsRepository(db.DB, logger)

	// Initialize the reasoning provider
	reasoner, err := llm.NewProvider(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reasoning provider", zap.Error(err))
	}

	// Assemble the decision pipeline
	engine := rules.NewEngine(cfg.Decision.MaxClaimAgeDays)
	orchestrator := decision.NewOrchestrator(reasoner, logger)
	detector := duplicate.NewDetector(claimRepo, logger)
	scorer := scoring.NewScorer(cfg.Decision.ScoringConfig())

	validationService := service.NewValidationService(
		claimRepo,
		documentRepo,
		employeeRepo,
		policyRepo,
		settingsRepo,
		txManager,
		engine,
		orchestrator,
		detector,
		scorer,
		logger,
	)
	exportService := export.NewService(claimRepo, logger)

	// Initialize HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		validationService,
		exportService,
		logger,
	)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
