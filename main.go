package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"abkit/internal"
	"abkit/internal/api"
	"abkit/internal/config"
	"abkit/internal/container"
	"abkit/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, _ := internal.ParseLogLevel(appConfig.LogLevel)
	logger := internal.NewLogger(level)
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize experiment store: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	reports, err := ui.NewApp(ui.Config{Repo: appContainer.Repo, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to initialize report UI: %v", err)
	}

	server := api.NewServer(api.Deps{
		Engine:    appContainer.Engine,
		Evaluator: appContainer.Evaluator,
		Repo:      appContainer.Repo,
		Defaults:  appConfig.Stats.Params(),
		Logger:    logger,
		UI:        reports,
		Metrics:   appConfig.Metrics.Enabled,
		StoreName: appContainer.StoreName,
	})

	logger.Info("abkit starting (alpha=%.3f beta=%.3f batch concurrency=%d)",
		appConfig.Stats.DefaultAlpha, appConfig.Stats.DefaultBeta, appConfig.Batch.Concurrency)

	if err := server.ListenAndServe(ctx, ":"+appConfig.Server.Port, appConfig.Server.ShutdownTimeout); err != nil {
		logger.Error("server stopped: %v", err)
		appContainer.Shutdown(context.Background())
		os.Exit(1)
	}
	logger.Info("server stopped")
}
