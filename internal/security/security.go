// Package security hardens the prediction gateway: per-IP rate limiting,
// content-type checks, request timeouts and response headers. Validation of
// the questionnaire payload itself lives in the questionnaire package.
package security

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Config holds the gateway hardening knobs.
type Config struct {
	MaxBodyBytes      int64         `json:"max_body_bytes"`
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	RequestTimeout    time.Duration `json:"request_timeout"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:      1 << 20,
		MaxRequestsPerMin: 60,
		RequestTimeout:    30 * time.Second,
	}
}

// Middleware bundles the hardening handlers around one shared config.
type Middleware struct {
	config Config

	mu         sync.Mutex
	ipLimiters map[string]*rate.Limiter

	// OnRateLimitBlock, when set, is called once per rejected request.
	OnRateLimitBlock func()
}

// NewMiddleware creates the middleware set.
func NewMiddleware(config Config) *Middleware {
	return &Middleware{
		config:     config,
		ipLimiters: make(map[string]*rate.Limiter),
	}
}

func (m *Middleware) limiterFor(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, ok := m.ipLimiters[ip]
	if !ok {
		rps := rate.Limit(float64(m.config.MaxRequestsPerMin) / 60.0)
		burst := m.config.MaxRequestsPerMin / 2
		if burst < 5 {
			burst = 5
		}
		limiter = rate.NewLimiter(rps, burst)
		m.ipLimiters[ip] = limiter
	}
	return limiter
}

// RateLimitByIP rejects callers that exceed their per-IP budget.
func (m *Middleware) RateLimitByIP(c *gin.Context) {
	if !m.limiterFor(c.ClientIP()).Allow() {
		if m.OnRateLimitBlock != nil {
			m.OnRateLimitBlock()
		}
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": "60",
		})
		c.Abort()
		return
	}
	c.Next()
}

// ValidateContentType only lets JSON bodies through to the prediction
// handlers.
func (m *Middleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		contentType := c.GetHeader("Content-Type")
		if contentType != "" && !strings.Contains(strings.ToLower(contentType), "application/json") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "unsupported content type, expected application/json",
			})
			c.Abort()
			return
		}
	}
	c.Next()
}

// LimitBodySize caps request bodies so oversized payloads fail during read.
func (m *Middleware) LimitBodySize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.config.MaxBodyBytes)
	c.Next()
}

// RequestTimeout bounds handler time via the request context.
func (m *Middleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(m.config.RequestTimeout.Seconds())))
	c.Next()
}

// SecurityHeaders sets the response headers for a JSON-only API.
func SecurityHeaders(c *gin.Context) {
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
	c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

	if os.Getenv("ENABLE_HSTS") == "true" {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	c.Next()
}
