package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// TranscriptionClient turns an audio reference into text using the OpenAI
// audio transcription endpoint.
type TranscriptionClient interface {
	// Transcribe downloads the audio at audioURL and returns its transcript.
	Transcribe(ctx context.Context, audioURL, filename string) (string, error)
	// FileSize reports the size of the audio at audioURL, or 0 when the
	// origin does not expose a Content-Length.
	FileSize(ctx context.Context, audioURL string) (int64, error)
}

type transcriptionClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewTranscriptionClient creates a transcription client against an
// OpenAI-compatible API.
func NewTranscriptionClient(baseURL, apiKey, model string, timeout time.Duration, logger zerolog.Logger) TranscriptionClient {
	return &transcriptionClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("service", "TranscriptionClient").Logger(),
	}
}

func (c *transcriptionClient) FileSize(ctx context.Context, audioURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, audioURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating size request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("checking audio size: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("audio origin returned status %d", resp.StatusCode)
	}
	if resp.ContentLength < 0 {
		return 0, nil
	}
	return resp.ContentLength, nil
}

// Transcribe streams the audio into a multipart upload against the
// transcriptions endpoint with response_format=text.
func (c *transcriptionClient) Transcribe(ctx context.Context, audioURL, filename string) (string, error) {
	audioReq, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating audio download request: %w", err)
	}
	audioResp, err := c.client.Do(audioReq)
	if err != nil {
		return "", fmt.Errorf("downloading audio: %w", err)
	}
	defer func() {
		_ = audioResp.Body.Close()
	}()
	if audioResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio origin returned status %d", audioResp.StatusCode)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		var writeErr error
		defer func() {
			_ = pw.CloseWithError(writeErr)
		}()
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			writeErr = err
			return
		}
		if _, err := io.Copy(part, audioResp.Body); err != nil {
			writeErr = err
			return
		}
		if err := mw.WriteField("model", c.model); err != nil {
			writeErr = err
			return
		}
		if err := mw.WriteField("response_format", "text"); err != nil {
			writeErr = err
			return
		}
		writeErr = mw.Close()
	}()

	url := fmt.Sprintf("%s/audio/transcriptions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return "", fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("making transcription request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		errorMsg := string(body)
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("error_body", errorMsg).
			Msg("Transcription API returned error")
		return "", fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, errorMsg)
	}
	return string(body), nil
}
