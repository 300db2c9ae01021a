package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const analysisSystemPrompt = "You are an expert sales conversation analyzer specializing in medical device and aesthetic product sales to healthcare practitioners."

// AnalysisClient extracts sales insights from a conversation transcript using
// a chat completion endpoint with a schema-constrained response, so the result
// comes back structured instead of as free text needing prefix matching.
type AnalysisClient interface {
	Analyze(ctx context.Context, transcript string) (string, error)
}

type analysisClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewAnalysisClient creates an analysis client against an OpenAI-compatible API.
func NewAnalysisClient(baseURL, apiKey, model string, timeout time.Duration, logger zerolog.Logger) AnalysisClient {
	return &analysisClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("service", "AnalysisClient").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// analysisResponseFormat constrains the completion to the AnalysisResult shape.
var analysisResponseFormat = json.RawMessage(`{
	"type": "json_schema",
	"json_schema": {
		"name": "conversation_analysis",
		"strict": true,
		"schema": {
			"type": "object",
			"properties": {
				"key_points": {"type": "array", "items": {"type": "string"}},
				"pain_points": {"type": "array", "items": {"type": "string"}},
				"objections": {"type": "array", "items": {"type": "string"}},
				"next_steps": {"type": "array", "items": {"type": "string"}},
				"sentiment": {"type": "string", "enum": ["positive", "neutral", "negative"]}
			},
			"required": ["key_points", "pain_points", "objections", "next_steps", "sentiment"],
			"additionalProperties": false
		}
	}
}`)

func (c *analysisClient) Analyze(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf("Analyze the following conversation transcript for a sales call with a doctor or medspa owner in the aesthetic or dental industry:\n\n%s\n\nProvide insights on:\n1. Key points discussed\n2. Customer pain points\n3. Objections raised\n4. Next steps\n5. Overall sentiment", transcript)

	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: analysisResponseFormat,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request body: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("making analysis request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		errorMsg := string(body)
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("error_body", errorMsg).
			Msg("Analysis API returned error")
		return "", fmt.Errorf("analysis API returned status %d: %s", resp.StatusCode, errorMsg)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decoding analysis response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("analysis response has no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
