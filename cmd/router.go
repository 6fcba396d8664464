package main

import (
	"net/http"
	"time"

	_ "github.com/financialmanagement/backend/docs"
	"github.com/financialmanagement/backend/internal/auth/middleware"
	"github.com/financialmanagement/backend/internal/config"
	"github.com/financialmanagement/backend/internal/handlers"
	loggerMiddleware "github.com/financialmanagement/backend/internal/logger/middleware"
	"github.com/financialmanagement/backend/internal/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// routerDeps holds everything the HTTP layer is built from
type routerDeps struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 handlers.Pinger
	tokens             middleware.AccessTokenValidator
	users              middleware.UserLoader
	authService        handlers.AuthService
	userService        handlers.UserService
	transactionService handlers.TransactionService
	reportService      handlers.ReportService
}

// newRouter assembles the middleware chain and registers every route
func newRouter(deps routerDeps) http.Handler {
	authMiddleware := middleware.AuthMiddleware(deps.tokens, deps.users, deps.logger)

	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(deps.logger))
	r.Use(middlewares.RecoveryMiddleware(deps.logger))
	r.Use(middlewares.CORSMiddleware(deps.cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(middlewares.DefaultMaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	handlers.NewHealthHandler(deps.db, deps.logger).RegisterRoutes(r)
	handlers.NewAuthHandler(deps.authService, deps.logger).RegisterRoutes(r, authMiddleware)
	handlers.NewUserHandler(deps.userService, deps.logger).RegisterRoutes(r, authMiddleware)
	handlers.NewTransactionHandler(deps.transactionService, deps.logger).RegisterRoutes(r, authMiddleware)
	handlers.NewReportHandler(deps.reportService, deps.logger).RegisterRoutes(r, authMiddleware)

	return r
}
