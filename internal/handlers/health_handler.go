package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// APIVersion is reported by GET /
const APIVersion = "1.0.0"

// Pinger checks that the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the service banner and the health check
type HealthHandler struct {
	BaseHandler
	db Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		db:          db,
	}
}

// RegisterRoutes registers the root and health routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
}

// Root handles GET /
// @Summary Service banner
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Financial Management API",
		"version": APIVersion,
	})
}

// Health handles GET /health
// @Summary Health check
// @Description Reports whether the service and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		h.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
