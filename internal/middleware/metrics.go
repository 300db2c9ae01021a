package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"app/internal/metrics"
)

// registeredRoutes are the paths served by the router. Anything else is
// bucketed under one label so arbitrary request paths cannot grow the
// metric's cardinality.
var registeredRoutes = map[string]struct{}{
	"/":               {},
	"/health":         {},
	"/metrics":        {},
	"/webhook":        {},
	"/user/usage":     {},
	"/stripe-webhook": {},
}

func routeLabel(path string) string {
	if _, ok := registeredRoutes[path]; ok {
		return path
	}
	return "unmatched"
}

// MetricsMiddleware records request counts, latency and in-flight gauge.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := routeLabel(r.URL.Path)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// MetricsAuthMiddleware provides basic authentication for the metrics endpoint.
// If both username and password are empty, authentication is disabled.
func MetricsAuthMiddleware(username, password string) func(http.Handler) http.Handler {
	enabled := username != "" || password != ""
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			// Constant-time comparison to prevent timing attacks
			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !userMatch || !passMatch {
				w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
