package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/metrics"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// defaultFileSize is assumed when the audio origin does not expose a size.
const defaultFileSize int64 = 5_000_000

// Quota gate outcomes surfaced to the transport layer.
var (
	ErrQuotaExceeded = errors.New("monthly quota exceeded")
	ErrFileTooLarge  = errors.New("file exceeds maximum size for tier")
)

// UpstreamError wraps a failure of a paid external call.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ProcessRequest is one audio-analysis request after authentication.
type ProcessRequest struct {
	Filename         string
	TranscriptionURL string
	DurationSeconds  int
	ConversationID   string
}

// ProcessResult is the shaped response for a completed request. Transcription
// and AnalysisSummary are truncated for the response body; full data lives in
// the store.
type ProcessResult struct {
	Message         string
	ConversationID  string
	Transcription   string
	AnalysisSummary string
	CurrentUsage    int
	MonthlyQuota    int
}

// ProcessingService composes the quota gate, the transcription and analysis
// calls, and result persistence.
type ProcessingService interface {
	Process(ctx context.Context, userID string, req *ProcessRequest) (*ProcessResult, error)
}

type processingService struct {
	quota         QuotaService
	transcriber   TranscriptionClient
	analyzer      AnalysisClient
	parser        AnalysisParser
	conversations repository.ConversationRepository
	logger        zerolog.Logger
}

// NewProcessingService creates a new ProcessingService with a scoped logger.
func NewProcessingService(
	quota QuotaService,
	transcriber TranscriptionClient,
	analyzer AnalysisClient,
	parser AnalysisParser,
	conversations repository.ConversationRepository,
	logger zerolog.Logger,
) ProcessingService {
	return &processingService{
		quota:         quota,
		transcriber:   transcriber,
		analyzer:      analyzer,
		parser:        parser,
		conversations: conversations,
		logger:        logger.With().Str("service", "ProcessingService").Logger(),
	}
}

// audioURL picks the audio reference: the explicit transcription URL when
// provided, otherwise the filename, which the frontend sends as a storage URL.
func (s *processingService) audioURL(req *ProcessRequest) string {
	if req.TranscriptionURL != "" {
		return req.TranscriptionURL
	}
	return req.Filename
}

// setStatus is a best-effort status write; failures are logged, not surfaced.
func (s *processingService) setStatus(ctx context.Context, conversationID, status string) {
	if conversationID == "" {
		return
	}
	if err := s.conversations.UpdateStatus(ctx, conversationID, status); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Str("status", status).Msg("Failed to update conversation status")
	}
}

func (s *processingService) Process(ctx context.Context, userID string, req *ProcessRequest) (*ProcessResult, error) {
	audioURL := s.audioURL(req)

	fileSize, err := s.transcriber.FileSize(ctx, audioURL)
	if err != nil || fileSize == 0 {
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Could not determine audio size, assuming default")
		}
		fileSize = defaultFileSize
	}

	// The quota gate records the usage event before any paid call below.
	decision, err := s.quota.CheckAndConsume(ctx, userID, fileSize, "audio_analysis")
	if err != nil {
		return nil, fmt.Errorf("quota check: %w", err)
	}
	if !decision.Allowed {
		switch decision.Reason {
		case DenyReasonFileTooLarge:
			return nil, ErrFileTooLarge
		default:
			return nil, ErrQuotaExceeded
		}
	}

	s.setStatus(ctx, req.ConversationID, model.ConversationStatusTranscribing)

	start := time.Now()
	transcript, err := s.transcriber.Transcribe(ctx, audioURL, req.Filename)
	if err != nil {
		s.failConversation(ctx, req.ConversationID, err)
		return nil, &UpstreamError{Stage: "transcription", Err: err}
	}
	metrics.ProcessingDuration.WithLabelValues("transcription").Observe(time.Since(start).Seconds())

	s.setStatus(ctx, req.ConversationID, model.ConversationStatusAnalyzing)

	start = time.Now()
	rawAnalysis, err := s.analyzer.Analyze(ctx, transcript)
	if err != nil {
		s.failConversation(ctx, req.ConversationID, err)
		return nil, &UpstreamError{Stage: "analysis", Err: err}
	}
	metrics.ProcessingDuration.WithLabelValues("analysis").Observe(time.Since(start).Seconds())

	analysis := s.parser.Parse(rawAnalysis)

	// Result persistence is best-effort: the user already paid for the call,
	// so a store failure must not fail the response.
	if req.ConversationID != "" {
		result := &model.LinguisticsResult{
			ConversationID: req.ConversationID,
			Transcription:  transcript,
			Sentiment:      analysis.Sentiment,
			KeyPoints:      analysis.KeyPoints,
			PainPoints:     analysis.PainPoints,
			Objections:     analysis.Objections,
			NextSteps:      analysis.NextSteps,
			FullAnalysis:   rawAnalysis,
		}
		if err := s.conversations.InsertLinguisticsResult(ctx, result); err != nil {
			s.logger.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("Failed to store analysis results")
			s.failConversation(ctx, req.ConversationID, fmt.Errorf("error storing results: %w", err))
		} else if err := s.conversations.MarkCompleted(ctx, req.ConversationID, req.DurationSeconds); err != nil {
			s.logger.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("Failed to mark conversation completed")
		}
	}

	return &ProcessResult{
		Message:         "Processing completed successfully",
		ConversationID:  req.ConversationID,
		Transcription:   truncate(transcript),
		AnalysisSummary: truncate(rawAnalysis),
		CurrentUsage:    decision.CurrentUsage,
		MonthlyQuota:    decision.Limit.MonthlyQuota,
	}, nil
}

func (s *processingService) failConversation(ctx context.Context, conversationID string, cause error) {
	if conversationID == "" {
		return
	}
	if err := s.conversations.MarkError(ctx, conversationID, cause.Error()); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to mark conversation errored")
	}
}

// truncate shortens a string to 100 characters for the response body.
func truncate(s string) string {
	const max = 100
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s + "..."
}
