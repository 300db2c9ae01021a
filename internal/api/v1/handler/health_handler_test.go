package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	h := NewHealthHandler(&config.Config{
		OpenAIAPIKey:       "sk-test",
		DBConnectionString: "postgres://localhost/app",
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["openai_configured"])
	assert.Equal(t, true, body["database_configured"])
	assert.Equal(t, false, body["stripe_configured"])
}

func TestRootBanner(t *testing.T) {
	h := NewHealthHandler(&config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.root(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Audio Analysis API is running", body["message"])
}

func TestRootRejectsUnknownPaths(t *testing.T) {
	h := NewHealthHandler(&config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.root(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
