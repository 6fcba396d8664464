package handlers

import (
	"context"
	"net/http"

	"github.com/financialmanagement/backend/internal/auth/middleware"
	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/policy"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserService is the interface that wraps methods for user administration.
type UserService interface {
	// Method Create validates and stores a new user.
	//
	// "req" parameter contains the new user's fields. An empty role means a plain user.
	//
	// Invalid fields wrap models.ErrValidation and a taken username or email wraps models.ErrDuplicate.
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method List retrieves a page of users ordered by ID.
	//
	// "skip" parameter must be >= 0 and "limit" parameter must be between 1 and 100.
	List(ctx context.Context, skip, limit int) ([]models.User, error)
	// Method Update applies the supplied fields to a user and returns the result.
	//
	// "id" parameter is the ID of the user to update.
	// "req" parameter holds the fields to change; nil fields are left unchanged.
	Update(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error)
	// Method Delete deletes a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// UserHandler handles user administration requests
type UserHandler struct {
	BaseHandler
	userService UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		userService: userService,
	}
}

// RegisterRoutes registers the user routes behind authentication and the admin role check
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RoleMiddleware(policy.CanManageUsers))

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func toUserResponses(users []models.User) []models.UserResponse {
	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return responses
}

// List handles GET /users/
// @Summary List users
// @Tags users
// @Produce json
// @Param skip query int false "Number of users to skip" default(0)
// @Param limit query int false "Maximum number of users" default(100)
// @Success 200 {array} models.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /users/ [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parsePage(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.userService.List(r.Context(), skip, limit)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusOK, toUserResponses(users))
}

// Create handles POST /users/
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "New user"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /users/ [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusCreated, user.ToResponse())
}

// Get handles GET /users/{id}
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusOK, user.ToResponse())
}

// Update handles PUT /users/{id}
// @Summary Update user
// @Description Partial update: only the supplied fields are changed.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateUserRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusOK, user.ToResponse())
}

// Delete handles DELETE /users/{id}
// @Summary Delete user
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
