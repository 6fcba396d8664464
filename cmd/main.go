package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/financialmanagement/backend/internal/auth/service"
	"github.com/financialmanagement/backend/internal/config"
	"github.com/financialmanagement/backend/internal/database"
	"github.com/financialmanagement/backend/internal/logger"
	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/repositories"
	"github.com/financialmanagement/backend/internal/services"
	"go.uber.org/zap"
)

// @title Financial Management API
// @version 1.0.0
// @description Record keeping API for deposits and expenses with role based access control.

// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logging.Level, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Financial Management API",
		zap.String("environment", cfg.Environment),
		zap.String("visibility", string(cfg.Visibility)),
	)

	// Connect to database
	db, err := database.Connect(context.Background(), cfg.DSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := service.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, appLogger)
	transactionRepo := repositories.NewTransactionRepository(db, appLogger)

	// Initialize services
	userService := services.NewUserService(userRepo, appLogger)
	authService := services.NewAuthService(userRepo, userService, tokenGenerator, appLogger)
	transactionService := services.NewTransactionService(transactionRepo, userRepo, cfg.Visibility, appLogger)
	reportService := services.NewReportService(transactionRepo, userRepo, cfg.Visibility, appLogger)

	// Seed the first administrator
	if cfg.Admin.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		created, err := userService.EnsureAdmin(ctx, &models.CreateUserRequest{
			Name:     cfg.Admin.Name,
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		cancel()
		if err != nil {
			appLogger.Fatal("Failed to create bootstrap administrator", zap.Error(err))
		}
		if created {
			appLogger.Info("Bootstrap administrator created", zap.String("username", cfg.Admin.Username))
		}
	} else {
		appLogger.Warn("No bootstrap administrator configured; set ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD to seed one")
	}

	r := newRouter(routerDeps{
		cfg:                cfg,
		logger:             appLogger,
		db:                 db,
		tokens:             tokenGenerator,
		users:              userRepo,
		authService:        authService,
		userService:        userService,
		transactionService: transactionService,
		reportService:      reportService,
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}
