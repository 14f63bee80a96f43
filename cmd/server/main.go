// backend/cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pagesignal/backend/internal/api"
	"github.com/pagesignal/backend/internal/api/handlers"
	"github.com/pagesignal/backend/internal/config"
	"github.com/pagesignal/backend/internal/database"
	"github.com/pagesignal/backend/internal/health"
	"github.com/pagesignal/backend/internal/middleware"
	"github.com/pagesignal/backend/internal/migration"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/pagesignal/backend/internal/services"
	"github.com/pagesignal/backend/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting feedback API server...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	migrationRunner := migration.NewRunner(dbManager, logger)
	if err := migrationRunner.RunMigrations("./migrations"); err != nil {
		logger.WithError(err).Fatal("Database migrations failed")
	}

	cache := database.NewCache(dbManager.Redis, logger)
	repoManager := repository.NewRepositoryManager(dbManager.DB)

	resolver := services.NewFormResolver(repoManager, cache, logger)
	submission := services.NewSubmissionService(repoManager, logger)
	acl := services.NewACLService(repoManager, logger)

	healthChecker := health.NewHealthChecker(dbManager, logger)

	formHandler := handlers.NewFormHandler(resolver, acl, repoManager, cache, logger)
	responseHandler := handlers.NewResponseHandler(submission, acl, repoManager, logger)
	healthHandler := handlers.NewHealthHandler(healthChecker, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute)

	router := api.NewRouter(formHandler, responseHandler, healthHandler, acl, rateLimiter, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}

	logger.Info("Server stopped")
}
