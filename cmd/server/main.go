package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/plopa1535/BF-Interestrate-DART/internal/api"
	"github.com/plopa1535/BF-Interestrate-DART/internal/api/handlers"
	"github.com/plopa1535/BF-Interestrate-DART/internal/config"
	"github.com/plopa1535/BF-Interestrate-DART/internal/dart"
	"github.com/plopa1535/BF-Interestrate-DART/internal/database"
	"github.com/plopa1535/BF-Interestrate-DART/internal/rates"
	"github.com/plopa1535/BF-Interestrate-DART/internal/services"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

func main() {
	// Local development keeps API keys in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// Upstream clients and the cached services over them. Every cache
	// is constructed here and injected; nothing reaches for globals.
	rateService := services.NewRateService(
		rates.NewClient(cfg.Rates), redis,
		config.CacheTTLOrDefault(cfg.Rates.CacheTTL, 30*time.Minute))
	dartService := services.NewDartService(
		dart.NewClient(cfg.DART), redis,
		config.CacheTTLOrDefault(cfg.DART.FilingsTTL, 6*time.Hour))
	newsService := services.NewNewsService(cfg.News, redis)
	aiService := services.NewAIService(cfg.AI, redis)

	router := gin.Default()
	api.SetupRoutes(router, api.Handlers{
		Rates:    handlers.NewRatesHandler(rateService),
		Dart:     handlers.NewDartHandler(dartService, rateService),
		Analysis: handlers.NewAnalysisHandler(rateService, newsService, aiService, cfg.Forecast.FilePath),
		Cache:    handlers.NewCacheHandler(rateService, dartService, newsService, aiService),
		Health:   handlers.NewHealthHandler(redis, version),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
