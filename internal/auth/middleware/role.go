package middleware

import (
	"net/http"

	"github.com/financialmanagement/backend/internal/models"
)

// RoleMiddleware rejects callers whose role is not allowed by the given policy decision.
// It must run after AuthMiddleware.
func RoleMiddleware(allowed func(models.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				RespondUnauthorized(w, "authentication required")
				return
			}

			if !allowed(user.Role) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"not enough permissions"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
