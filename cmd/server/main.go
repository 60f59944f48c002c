package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garyjia/societyhub/internal/config"
	"github.com/garyjia/societyhub/internal/container"
	"github.com/garyjia/societyhub/internal/infrastructure/persistence/seed"
	httpserver "github.com/garyjia/societyhub/internal/interfaces/http"
	"github.com/garyjia/societyhub/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "societyhub",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting SocietyHub server",
		zap.String("version", httpserver.Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("database_driver", cfg.Database.Driver))

	// Wire storage, channels, services and the workflow engine
	app, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Invalid container configuration", zap.Error(err))
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	err = app.Start(startCtx)
	cancelStart()
	if err != nil {
		logger.Fatal("Failed to start application", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close application", zap.Error(err))
		}
	}()

	if cfg.Database.SeedDemo || app.Store().Backend() == "memory" {
		logger.Info("Demo accounts available",
			zap.String("admin", "admin@societyhub.com / "+seed.AdminPassword),
			zap.String("society_user", "manager@greenvalley.org / "+seed.UserPassword),
			zap.String("agent", "agent@societyhub.com / "+seed.AgentPassword))
	}

	services := app.Services()
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Mode:            cfg.Server.Mode,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	}, httpserver.Dependencies{
		Workflow:   app.WorkflowEngine(),
		Auth:       services.Auth,
		Onboarding: services.Onboarding,
		Reports:    services.Report,
		Health:     app,
	}, utils.NewKeyValueLogger(logger.Named("http")))

	// Cancel on SIGINT/SIGTERM; Start returns after graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server exited successfully")
}
