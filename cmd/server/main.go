package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/config"
	"github.com/bhushanpardeshii/cribblebotbe/internal/repository"
	"github.com/bhushanpardeshii/cribblebotbe/internal/sentiment"
	"github.com/bhushanpardeshii/cribblebotbe/internal/server"
	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
	"github.com/bhushanpardeshii/cribblebotbe/internal/telegram"
)

func main() {
	defaultPath := "configs/config.yml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	configPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// The logger depends on the config, so this one goes through a bootstrap logger.
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Failed to load config", zap.Error(err))
	}

	var logger *zap.Logger
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	}
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store service.SessionStore
	if cfg.SessionStore.Enabled {
		repo, err := repository.Open(cfg.SessionStore, logger)
		if err != nil {
			logger.Fatal("Failed to initialize session store", zap.Error(err))
		}
		defer repo.Close()
		store = repo
	}

	classifier, closeClassifier, err := sentiment.New(ctx, cfg.Classifier, logger)
	if err != nil {
		logger.Fatal("Failed to initialize classifier", zap.Error(err))
	}
	defer closeClassifier()
	logger.Info("Sentiment classifier initialized", zap.String("provider", cfg.Classifier.Provider))

	platform := telegram.NewClient(cfg.Telegram, cfg.Analysis.BatchSize, logger)
	authService := service.NewAuthService(platform, store, cfg.Telegram.DefaultCountryCode, logger)
	defer authService.Close()

	if err := authService.Restore(ctx); err != nil {
		logger.Warn("Failed to restore stored session", zap.Error(err))
	}

	analyzer := service.NewAnalyzer(authService, classifier, service.AnalyzerOptions{
		Window:         cfg.Analysis.Window(),
		MaxMessages:    cfg.Analysis.MaxMessages,
		OldStreakLimit: cfg.Analysis.OldStreakLimit,
	}, logger)

	srv := server.NewServer(cfg.Server.Port, authService, analyzer, logger)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	logger.Info("Telegram Sentiment API is running", zap.String("port", cfg.Server.Port))
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
