package dto

// AudioRequest is the body of the audio processing endpoint.
type AudioRequest struct {
	Filename         string `json:"filename" validate:"required"`
	TranscriptionURL string `json:"transcription_url,omitempty" validate:"omitempty,url"`
	DurationSeconds  int    `json:"duration_seconds,omitempty" validate:"omitempty,gte=0"`
	ConversationID   string `json:"conversation_id,omitempty"`
}

// UsageCounters reports consumption within the current billing window.
type UsageCounters struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
}

// ProcessResponse is the shaped response of the audio processing endpoint.
// Transcription and analysis are truncated; full data is persisted.
type ProcessResponse struct {
	Message         string        `json:"message"`
	ConversationID  string        `json:"conversation_id,omitempty"`
	Transcription   string        `json:"transcription"`
	AnalysisSummary string        `json:"analysis_summary"`
	Usage           UsageCounters `json:"usage"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
