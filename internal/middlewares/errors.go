package middlewares

import (
	"encoding/json"
	"net/http"
)

// writeError writes the {"error": msg} body the API handlers use for failures
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
