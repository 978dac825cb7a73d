package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/config"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthenticate(t *testing.T) {
	cfg := &config.Config{
		JWTSecret: "testservlet",
	}
	mw := NewMiddleware(cfg, discardLogger())

	tests := []struct {
		name        string
		cookieValue string
		bearer      string
		wantUser    string
	}{
		{
			name:     "No token",
			wantUser: "",
		},
		{
			name:        "Invalid cookie",
			cookieValue: "invalid",
			wantUser:    "",
		},
		{
			name:        "Valid cookie",
			cookieValue: generateTestToken(t, cfg.JWTSecret, "user-1", time.Minute),
			wantUser:    "user-1",
		},
		{
			name:     "Valid bearer",
			bearer:   generateTestToken(t, cfg.JWTSecret, "user-2", time.Minute),
			wantUser: "user-2",
		},
		{
			name:        "Expired cookie",
			cookieValue: generateTestToken(t, cfg.JWTSecret, "user-1", -time.Minute),
			wantUser:    "",
		},
		{
			name:        "Wrong secret",
			cookieValue: generateTestToken(t, "other", "user-1", time.Minute),
			wantUser:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/tags", nil)
			if tt.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: authCookie, Value: tt.cookieValue})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}

			var got string
			rr := httptest.NewRecorder()
			handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantUser, got)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	mw := NewMiddleware(&config.Config{JWTSecret: "s"}, discardLogger())
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Not authenticated","code":"UNAUTHENTICATED"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	handler.ServeHTTP(rr, req.WithContext(withUserID(req.Context(), "user-1")))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRateLimit(t *testing.T) {
	mw := NewMiddleware(&config.Config{JWTSecret: "s"}, discardLogger())
	limiter := ratelimit.New(0.001, 2)
	defer limiter.Stop()

	handler := mw.RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/tags", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A signed-in user has a separate bucket.
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/tags", nil)
	handler.ServeHTTP(rr, req.WithContext(withUserID(req.Context(), "user-1")))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestIssueTokenRoundTrip(t *testing.T) {
	mw := NewMiddleware(&config.Config{JWTSecret: "s"}, discardLogger())

	token, expiresAt, err := mw.issueToken("user-1", time.Now())
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), expiresAt, time.Minute)

	userID, err := mw.parseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func generateTestToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}
