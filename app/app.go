// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-auth-api/config"
	"go-auth-api/db"
	"go-auth-api/handler"
	"go-auth-api/logger"
	"go-auth-api/repository"
	"go-auth-api/router"
	"go-auth-api/service"
)

// NewHandler wires repositories, the auth service and the router over database.
func NewHandler(database *sql.DB, cfg config.Config) http.Handler {
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	authService := service.NewAuthService(userRepo, tokenRepo, cfg.JWT.SecretKey, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	sessionHandler := handler.NewSessionHandler(authService)

	return router.NewRouter(sessionHandler, authService)
}

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.SetLevel(config.AppConfig.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	if config.AppConfig.JWT.SecretKey == "" {
		logger.Log.Fatal("jwt.secret_key must be set")
	}

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(config.AppConfig.Database.Migrations, db.URL()); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewHandler(database, config.AppConfig),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
