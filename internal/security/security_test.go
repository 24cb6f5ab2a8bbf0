package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(m *Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders, m.ValidateContentType, m.RateLimitByIP)
	r.POST("/predict", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func TestSecurityHeadersPresent(t *testing.T) {
	r := newTestRouter(NewMiddleware(DefaultConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestValidateContentTypeRejectsNonJSON(t *testing.T) {
	r := newTestRouter(NewMiddleware(DefaultConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRateLimitByIPBlocksAfterBurst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRequestsPerMin = 6 // burst floor of 5 applies

	var blocks int
	m := NewMiddleware(cfg)
	m.OnRateLimitBlock = func() { blocks++ }
	r := newTestRouter(m)

	blocked := false
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.1.2.3:1234"
		r.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			blocked = true
		}
	}

	assert.True(t, blocked, "sustained burst must hit the limiter")
	assert.Greater(t, blocks, 0)
}

func TestRateLimitIsPerIP(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRequestsPerMin = 6
	m := NewMiddleware(cfg)
	r := newTestRouter(m)

	// Exhaust the first IP.
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:1000"
		r.ServeHTTP(w, req)
	}

	// A different IP still gets through.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.2:1000"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
