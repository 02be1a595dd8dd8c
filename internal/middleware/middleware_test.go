package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetClientFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"web": "s3cret"}, "/health")(okHandler)

	tests := []struct {
		name   string
		path   string
		header map[string]string
		status int
		body   string
	}{
		{"missing", "/analyze", nil, http.StatusUnauthorized, ""},
		{"wrong", "/analyze", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
		{"bearer", "/analyze", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK, "web"},
		{"raw", "/analyze", map[string]string{"Authorization": "s3cret"}, http.StatusOK, "web"},
		{"x-api-key", "/analyze", map[string]string{"X-API-Key": "s3cret"}, http.StatusOK, "web"},
		{"skipped path", "/health", nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	APIKeyAuth(nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tb := newTokenBucket(2, 1, clock)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "refill is capped at capacity")
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Now()
	limiter.now = func() time.Time { return now }
	h := RateLimit(limiter)(okHandler)

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1111").Code)
	second := call("10.0.0.1:2222")
	assert.Equal(t, http.StatusTooManyRequests, second.Code, "port does not split the bucket")
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1111").Code)

	now = now.Add(time.Hour)
	assert.Equal(t, 2, limiter.Prune(time.Minute))
}

func TestRateLimiterRunStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRateLimiter(1, 1).Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analyze", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/analyze", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["bytes"])
}

func TestMetrics(t *testing.T) {
	before := GetMetrics()

	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	TrackAnalysis()(errors.New("boom"))
	TrackAnalysis()(nil)

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var after map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))

	delta := func(key string) float64 {
		return after[key].(float64) - float64(before[key].(uint64))
	}
	assert.Equal(t, 1.0, delta("requests_failed"))
	assert.Equal(t, 2.0, delta("analyses_total"))
	assert.Equal(t, 1.0, delta("analyses_failed"))
	assert.Equal(t, 0.0, delta("analyses_running"))
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{
		"database": CheckerFunc(func(ctx context.Context) error { return nil }),
	})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{
		"database": CheckerFunc(func(ctx context.Context) error { return errors.New("refused") }),
	})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var hs HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hs))
	assert.Equal(t, "unhealthy", hs.Status)
	assert.Equal(t, "refused", hs.Checks["database"].Message)
}

func TestReadiness(t *testing.T) {
	var rd Readiness
	rec := httptest.NewRecorder()
	rd.Handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rd.Set(true)
	rec = httptest.NewRecorder()
	rd.Handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidators(t *testing.T) {
	assert.Equal(t, "a\tb\nc\r", SanitizeString("a\x00\tb\n\x07c\r"))
	assert.Equal(t, "  x  ", SanitizeString("  x  "))

	assert.ErrorIs(t, ValidateCode(" \n", 0), domain.ErrEmptyInput)
	assert.ErrorIs(t, ValidateCode(strings.Repeat("a", 11), 10), domain.ErrCodeTooLarge)
	assert.NoError(t, ValidateCode(strings.Repeat("a", 11), 0))

	assert.NoError(t, ValidateRecordID("5f0c6c1e-8a4b-4a4e-9c61-2f6f7f0f9b11"))
	assert.Error(t, ValidateRecordID(""))
	assert.Error(t, ValidateRecordID("../etc/passwd"))

	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(500))
	assert.Equal(t, 7, ValidateLimit(7))
	assert.Equal(t, 1, ValidatePage(-3))
	assert.Equal(t, 4, ValidatePage(4))
}
