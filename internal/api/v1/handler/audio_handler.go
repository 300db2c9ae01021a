package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AudioHandler handles the audio processing endpoint.
type AudioHandler struct {
	processing service.ProcessingService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(processing service.ProcessingService, v *validator.Validate, logger zerolog.Logger) *AudioHandler {
	return &AudioHandler{processing: processing, validate: v, logger: logger}
}

// RegisterRoutes mounts the processing endpoint behind auth.
func (h *AudioHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/webhook", authMw(http.HandlerFunc(h.Process)))
}

func (h *AudioHandler) Process(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.AudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.processing.Process(r.Context(), userID, &service.ProcessRequest{
		Filename:         req.Filename,
		TranscriptionURL: req.TranscriptionURL,
		DurationSeconds:  req.DurationSeconds,
		ConversationID:   req.ConversationID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := dto.ProcessResponse{
		Message:         result.Message,
		ConversationID:  result.ConversationID,
		Transcription:   result.Transcription,
		AnalysisSummary: result.AnalysisSummary,
		Usage: dto.UsageCounters{
			Current: result.CurrentUsage,
			Limit:   result.MonthlyQuota,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *AudioHandler) writeError(w http.ResponseWriter, err error) {
	var upstream *service.UpstreamError

	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Message: "Monthly quota exceeded. Please upgrade your plan."})
	case errors.Is(err, service.ErrFileTooLarge):
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Message: "File exceeds the maximum size for your plan. Please upgrade your plan."})
	case errors.As(err, &upstream):
		h.logger.Error().Err(err).Str("stage", upstream.Stage).Msg("upstream processing failed")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Message: "Error processing audio: " + upstream.Error()})
	default:
		h.logger.Error().Err(err).Msg("processing request failed")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Message: "Error processing audio: " + err.Error()})
	}
}
