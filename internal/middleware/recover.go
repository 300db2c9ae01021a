package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"app/internal/logger"
)

// RecoverMiddleware converts any unhandled panic into a 500 with a generic
// message plus the raw error detail. Exposing the detail is acceptable for an
// internal tool but leaks information if this surface ever goes public.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := logger.New()
				logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("Recovered from panic")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"message": "Internal server error",
					"detail":  fmt.Sprintf("%v", rec),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
