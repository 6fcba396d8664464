package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/financialmanagement/backend/internal/auth/middleware"
	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/policy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// LoginRateLimit is the number of login attempts allowed per IP and minute
const LoginRateLimit = 10

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Login checks the credentials and returns a new token pair.
	//
	// "req" parameter contains username and password.
	//
	// If the username is unknown or the password is wrong, an error wrapping models.ErrUnauthorized will be returned together with "nil" value.
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	// Method Refresh exchanges a refresh token for a new token pair.
	//
	// "refreshToken" parameter is the refresh token issued at login.
	//
	// If the token is invalid, expired, of the wrong type or its user no longer exists, an error wrapping models.ErrInvalidToken will be returned.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	// Method Register creates a new user on behalf of an administrator.
	//
	// "actor" parameter is the authenticated caller.
	// "req" parameter contains the new user's fields.
	//
	// If the caller is not an administrator, models.ErrForbidden will be returned.
	Register(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers all auth handler routes.
// authMiddleware guards the routes that need an access token; registration is rejected for non-admins before the body is read.
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.With(httprate.LimitByIP(LoginRateLimit, time.Minute)).Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/me", h.Me)
			r.With(middleware.RoleMiddleware(policy.CanRegisterUser)).Post("/register", h.Register)
		})
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Create a new account. Only administrators may register users.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "New user"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} ErrorResponse "Invalid request body or user already exists"
// @Failure 401 {object} ErrorResponse "Missing or invalid access token"
// @Failure 403 {object} ErrorResponse "Not an administrator"
// @Security ApiKeyAuth
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var req models.CreateUserRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), actor, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusCreated, user.ToResponse())
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticate with username and password and receive an access and a refresh token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Incorrect username or password"
// @Failure 429 {object} ErrorResponse "Too many login attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusOK, tokens)
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair. The token is read from the Authorization header or from the request body.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token (optional when sent as bearer token)"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} ErrorResponse "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := middleware.BearerToken(r)
	if refreshToken == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	if refreshToken == "" {
		h.RespondError(w, http.StatusUnauthorized, "refresh token required")
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusOK, tokens)
}

// Me handles GET /auth/me
// @Summary Current user
// @Description Return the profile of the authenticated user.
// @Tags auth
// @Produce json
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} ErrorResponse "Missing or invalid access token"
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	h.RespondJSON(w, http.StatusOK, actor.ToResponse())
}
