package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/config"
)

// HealthHandler serves the unauthenticated banner and health endpoints.
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// RegisterRoutes mounts the banner and health endpoints.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.root)
	mux.HandleFunc("/health", h.health)
}

func (h *HealthHandler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Audio Analysis API is running"})
}

func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":              "ok",
		"version":             "1.0.0",
		"openai_configured":   h.cfg.OpenAIAPIKey != "",
		"database_configured": h.cfg.DBConnectionString != "",
		"stripe_configured":   h.cfg.StripeSecretKey != "",
	})
}
