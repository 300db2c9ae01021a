package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotaService struct {
	usage *model.UserUsage
	err   error
}

func (f *fakeQuotaService) CheckAndConsume(ctx context.Context, userID string, fileSize int64, requestType string) (*service.Decision, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuotaService) GetUsage(ctx context.Context, userID string) (*model.UserUsage, error) {
	return f.usage, f.err
}

func TestGetUsageEndpoint(t *testing.T) {
	reset := time.Now().Add(12 * 24 * time.Hour).UTC().Truncate(time.Second)
	h := NewUsageHandler(&fakeQuotaService{usage: &model.UserUsage{
		Tier:         model.TierBasic,
		CurrentUsage: 12,
		MonthlyQuota: 50,
		ResetDate:    reset,
	}}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, "u1"))
	rec := httptest.NewRecorder()
	h.GetUsage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.UsageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.TierBasic, resp.Tier)
	assert.Equal(t, 12, resp.Usage)
	assert.Equal(t, 50, resp.Quota)
	assert.True(t, resp.ResetDate.Equal(reset))
}

func TestGetUsageEndpointStoreFailure(t *testing.T) {
	h := NewUsageHandler(&fakeQuotaService{err: errors.New("store timeout")}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, "u1"))
	rec := httptest.NewRecorder()
	h.GetUsage(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetUsageEndpointMissingUser(t *testing.T) {
	h := NewUsageHandler(&fakeQuotaService{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	rec := httptest.NewRecorder()
	h.GetUsage(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
