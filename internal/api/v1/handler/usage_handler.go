package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// UsageHandler reports the caller's quota consumption.
type UsageHandler struct {
	quota  service.QuotaService
	logger zerolog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(quota service.QuotaService, logger zerolog.Logger) *UsageHandler {
	return &UsageHandler{quota: quota, logger: logger}
}

// RegisterRoutes mounts the usage endpoint behind auth.
func (h *UsageHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/user/usage", authMw(http.HandlerFunc(h.GetUsage)))
}

func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	usage, err := h.quota.GetUsage(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch usage")
		http.Error(w, "Error getting usage: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.UsageResponse{
		Tier:      usage.Tier,
		Usage:     usage.CurrentUsage,
		Quota:     usage.MonthlyQuota,
		ResetDate: usage.ResetDate,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
