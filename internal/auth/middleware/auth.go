package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/financialmanagement/backend/internal/models"
	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

// AccessTokenValidator is the interface that wraps access token validation.
type AccessTokenValidator interface {
	// Method ValidateAccessToken checks the token signature, expiry and type.
	//
	// On success the ID of the user the token was issued for is returned.
	ValidateAccessToken(token string) (int, error)
}

// UserLoader is the interface that wraps the lookup of the authenticated user.
type UserLoader interface {
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound is returned.
	GetByID(ctx context.Context, userID int) (*models.User, error)
}

// AuthMiddleware validates the bearer access token and loads the caller from the user directory.
// The caller is stored in the request context and can be read with GetUser.
func AuthMiddleware(validator AccessTokenValidator, users UserLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				RespondUnauthorized(w, "authentication required")
				return
			}

			userID, err := validator.ValidateAccessToken(token)
			if err != nil {
				RespondUnauthorized(w, "could not validate credentials")
				return
			}

			// Deleted users keep valid tokens until expiry, so the directory has the final word
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, models.ErrNotFound) {
					logger.Error("failed to load authenticated user", zap.Int("userID", userID), zap.Error(err))
				}
				RespondUnauthorized(w, "could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

// RespondUnauthorized writes a 401 response with a bearer challenge
func RespondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// GetUser retrieves the authenticated user from context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
