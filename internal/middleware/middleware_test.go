package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/placerank/internal/validation"
	"github.com/temcen/placerank/pkg/models"
)

type stubAuthenticator struct{}

func (stubAuthenticator) ValidateToken(_ context.Context, token string) (*models.JWTClaims, error) {
	if token != "header.payload.sig" {
		return nil, errors.New("bad token")
	}
	return &models.JWTClaims{UserID: "user-1", UserTier: "premium"}, nil
}

func (stubAuthenticator) ValidateAPIKey(key string) (string, error) {
	if key != "partner-key" {
		return "", errors.New("invalid API key")
	}
	return "enterprise", nil
}

type stubLimiter struct {
	allowed bool
	err     error
	callers []string
	tiers   []string
}

func (l *stubLimiter) IsAllowed(_ context.Context, callerID, userTier string) (bool, *models.RateLimitInfo, error) {
	l.callers = append(l.callers, callerID)
	l.tiers = append(l.tiers, userTier)
	if l.err != nil {
		return false, nil, l.err
	}
	remaining := 0
	if l.allowed {
		remaining = 9
	}
	return l.allowed, &models.RateLimitInfo{Limit: 10, Remaining: remaining, ResetTime: 1700000000}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.Use(handlers...)
	router.Any("/test", func(c *gin.Context) {
		userID, tier, _ := GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "tier": tier})
	})
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		userHeader string
		wantStatus int
		wantCode   string
		wantUser   string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantCode: "MISSING_AUTHORIZATION"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_AUTHORIZATION_FORMAT"},
		{name: "valid jwt", header: "Bearer header.payload.sig", wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "invalid jwt", header: "Bearer a.b.c", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "api key acting for user", header: "Bearer partner-key", userHeader: "user-7", wantStatus: http.StatusOK, wantUser: "user-7"},
		{name: "unknown api key", header: "Bearer other-key", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(Auth(stubAuthenticator{}, testLogger()))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.userHeader != "" {
				req.Header.Set("X-User-ID", tt.userHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w)["code"])
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantUser, body["user_id"])
		})
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("rejects when exhausted", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		router := newTestRouter(Auth(stubAuthenticator{}, testLogger()), RateLimit(limiter, testLogger()))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer partner-key")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
		assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeError(t, w)["code"])
		assert.Equal(t, []string{"key:partner-key"}, limiter.callers)
		assert.Equal(t, []string{"enterprise"}, limiter.tiers)
	})

	t.Run("counts JWT callers under their claimed tier", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		router := newTestRouter(Auth(stubAuthenticator{}, testLogger()), RateLimit(limiter, testLogger()))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer header.payload.sig")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, []string{"premium"}, limiter.tiers)
		assert.JSONEq(t, `{"user_id":"user-1","tier":"premium"}`, w.Body.String())
	})

	t.Run("passes through on limiter error", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("redis down")}
		router := newTestRouter(Auth(stubAuthenticator{}, testLogger()), RateLimit(limiter, testLogger()))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer header.payload.sig")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"user-1"}, limiter.callers)
	})
}

func TestValidateFeedbackBody(t *testing.T) {
	sv, err := validation.NewDefaultSchemaValidator()
	require.NoError(t, err)
	vm := NewValidationMiddleware(sv)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "valid", body: `{"user_id":"u1","place_id":"p1","rating":5}`, wantStatus: http.StatusOK},
		{name: "empty", body: ``, wantStatus: http.StatusBadRequest, wantCode: "EMPTY_BODY"},
		{name: "malformed", body: `{"user_id":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_JSON"},
		{name: "bad rating", body: `{"user_id":"u1","place_id":"p1","rating":0}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(vm.ValidateFeedback())

			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w)["code"])
			}
		})
	}
}

func TestValidateRankingQuery(t *testing.T) {
	vm := NewValidationMiddleware(validation.NewSchemaValidator())

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "no params", query: "", wantStatus: http.StatusOK},
		{name: "full context", query: "?mood=calm&weather=rain&lat=37.5&lng=127.0&at=2024-05-06T09:00:00Z", wantStatus: http.StatusOK},
		{name: "latitude out of range", query: "?lat=91&lng=0", wantStatus: http.StatusBadRequest},
		{name: "latitude without longitude", query: "?lat=37.5", wantStatus: http.StatusBadRequest},
		{name: "bad timestamp", query: "?at=yesterday", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(vm.ValidateRankingQuery())

			req := httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
