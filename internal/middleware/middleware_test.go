package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(router, http.MethodGet, "/", nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS is only sent in release mode")
}

func TestCorrelationID(t *testing.T) {
	var fromContext string
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/", func(c *gin.Context) {
		fromContext = logging.CorrelationID(c.Request.Context())
		c.String(http.StatusOK, c.GetString(CorrelationIDKey))
	})

	w := perform(router, http.MethodGet, "/", map[string]string{CorrelationIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", fromContext)

	w = perform(router, http.MethodGet, "/", nil)
	generated := w.Header().Get(CorrelationIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, fromContext)
}

func TestRequestTimeout(t *testing.T) {
	var deadlineSet bool
	router := gin.New()
	router.Use(RequestTimeout(time.Second))
	router.GET("/", func(c *gin.Context) {
		_, deadlineSet = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	perform(router, http.MethodGet, "/", nil)

	assert.True(t, deadlineSet)
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := gin.New()
	router.Use(CorrelationID(), AuditLogger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	perform(router, http.MethodGet, "/ok", map[string]string{CorrelationIDHeader: "audit-1"})
	perform(router, http.MethodGet, "/bad", nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "audit-1", first["correlation_id"])
	assert.Equal(t, "/ok", first["path"])
	assert.Equal(t, float64(200), first["status"])
	assert.Equal(t, "info", first["level"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "warning", second["level"])
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "budgets are per client")
}

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID(), RateLimit(domain.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodGet, "/", map[string]string{CorrelationIDHeader: "rl-1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrCodeRateLimit, apiErr.Code)
	assert.Equal(t, "rl-1", apiErr.RequestID)
}

func TestRateLimit_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(domain.RateLimitConfig{Enabled: false}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/", nil).Code)
	}
}
