package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/financialmanagement/backend/internal/auth/middleware"
	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	h.RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondServiceError maps an error returned by a service to an HTTP status.
// resource names the entity in the 404 message, e.g. "transaction".
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrDuplicate):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		h.RespondError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, models.ErrInvalidToken):
		h.RespondError(w, http.StatusUnauthorized, "could not validate credentials")
	case errors.Is(err, models.ErrUnauthorized):
		h.RespondError(w, http.StatusUnauthorized, "incorrect username or password")
	case errors.Is(err, models.ErrForbidden):
		h.RespondError(w, http.StatusForbidden, models.ErrForbidden.Error())
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// DecodeJSON decodes the request body into dst and writes a 400 or 413 response on failure.
// It reports whether decoding succeeded.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Actor returns the authenticated caller, writing a 401 response when there is none
func (h *BaseHandler) Actor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// parseID reads a positive integer URL parameter
func parseID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parsePage reads the skip and limit query parameters.
// Missing values default to 0 and services.DefaultPageLimit; range checks are left to the services.
func parsePage(r *http.Request) (int, int, error) {
	skip, limit := 0, services.DefaultPageLimit

	if raw := r.URL.Query().Get("skip"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("skip must be an integer")
		}
		skip = v
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("limit must be an integer")
		}
		limit = v
	}

	return skip, limit, nil
}
