package repository

import (
	"context"
	"database/sql"
	"fmt"

	"app/internal/model"

	"github.com/rs/zerolog"
)

// ConversationRepository tracks conversation processing status and stores
// completed analysis results.
type ConversationRepository interface {
	UpdateStatus(ctx context.Context, conversationID, status string) error
	MarkCompleted(ctx context.Context, conversationID string, durationSeconds int) error
	MarkError(ctx context.Context, conversationID, errorMessage string) error
	InsertLinguisticsResult(ctx context.Context, result *model.LinguisticsResult) error
}

type conversationRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewConversationRepo creates a new ConversationRepository.
func NewConversationRepo(db *sql.DB, logger zerolog.Logger) ConversationRepository {
	return &conversationRepo{db: db, logger: logger}
}

func (r *conversationRepo) UpdateStatus(ctx context.Context, conversationID, status string) error {
	const q = `
        UPDATE conversations
        SET status = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.db.ExecContext(ctx, q, conversationID, status); err != nil {
		return fmt.Errorf("update status for conversation %s: %w", conversationID, err)
	}
	return nil
}

func (r *conversationRepo) MarkCompleted(ctx context.Context, conversationID string, durationSeconds int) error {
	const q = `
        UPDATE conversations
        SET status = 'completed',
            duration_seconds = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.db.ExecContext(ctx, q, conversationID, durationSeconds); err != nil {
		return fmt.Errorf("mark conversation %s completed: %w", conversationID, err)
	}
	return nil
}

func (r *conversationRepo) MarkError(ctx context.Context, conversationID, errorMessage string) error {
	const q = `
        UPDATE conversations
        SET status = 'error',
            error_message = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.db.ExecContext(ctx, q, conversationID, errorMessage); err != nil {
		return fmt.Errorf("mark conversation %s errored: %w", conversationID, err)
	}
	return nil
}

func (r *conversationRepo) InsertLinguisticsResult(ctx context.Context, result *model.LinguisticsResult) error {
	const q = `
        INSERT INTO linguistics_results
            (conversation_id, transcription, sentiment, key_points, pain_points, objections, next_steps, full_analysis, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
    `
	_, err := r.db.ExecContext(ctx, q,
		result.ConversationID,
		result.Transcription,
		result.Sentiment,
		encodeStringList(result.KeyPoints),
		encodeStringList(result.PainPoints),
		encodeStringList(result.Objections),
		encodeStringList(result.NextSteps),
		result.FullAnalysis,
	)
	if err != nil {
		return fmt.Errorf("insert linguistics result for conversation %s: %w", result.ConversationID, err)
	}
	return nil
}
