package model

import "time"

// Conversation processing states.
const (
	ConversationStatusTranscribing = "transcribing"
	ConversationStatusAnalyzing    = "analyzing"
	ConversationStatusCompleted    = "completed"
	ConversationStatusError        = "error"
)

// Conversation tracks the processing state of one audio conversation.
type Conversation struct {
	ID              string    `db:"id" json:"id"`
	Status          string    `db:"status" json:"status"`
	DurationSeconds int       `db:"duration_seconds" json:"duration_seconds"`
	ErrorMessage    *string   `db:"error_message" json:"error_message,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// LinguisticsResult is the persisted outcome of transcribing and analyzing
// one conversation.
type LinguisticsResult struct {
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Transcription  string    `db:"transcription" json:"transcription"`
	Sentiment      string    `db:"sentiment" json:"sentiment"`
	KeyPoints      []string  `db:"key_points" json:"key_points"`
	PainPoints     []string  `db:"pain_points" json:"pain_points"`
	Objections     []string  `db:"objections" json:"objections"`
	NextSteps      []string  `db:"next_steps" json:"next_steps"`
	FullAnalysis   string    `db:"full_analysis" json:"full_analysis"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
