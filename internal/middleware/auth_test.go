package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authProbe(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := r.Context().Value(UserContextKey).(string); ok {
			gotUser = userID
		}
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(testSecret)(next), &gotUser
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	handler, gotUser := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", *gotUser)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	handler, _ := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	handler, _ := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareBadSignature(t *testing.T) {
	handler, gotUser := authProbe(t)

	// A token signed with the wrong secret carries a valid-looking subject
	// but must be rejected: the claim is not trusted without verification.
	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, *gotUser)
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	handler, _ := authProbe(t)

	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user/usage", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
