package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware records request counters, latency samples and the
// status distribution, and logs every handled request.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(method, path, ip, userAgent, statusCode, duration)

		for _, err := range c.Errors {
			logger.APIErrorLogger(err.Err, method, path, ip, statusCode)
		}

		if statusCode >= 500 {
			logger.SystemLogger("server_error", fmt.Sprintf("status %d for %s %s", statusCode, method, path))
		}
	}
}

// SecurityMonitoringMiddleware flags oversized prediction payloads and
// known scanner user agents. It only logs; blocking is the security
// package's job.
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		path := c.Request.URL.Path

		details := make(map[string]interface{})
		suspicious := false

		if c.Request.Method == "POST" && strings.HasPrefix(path, "/predict") {
			if size := c.Request.ContentLength; size > 1<<20 {
				suspicious = true
				details["type"] = "large_request_body"
				details["size_bytes"] = size
			}
		}

		if isScannerUserAgent(userAgent) {
			suspicious = true
			details["type"] = "suspicious_user_agent"
			details["user_agent"] = userAgent
		}

		if suspicious {
			logger.SecurityLogger("suspicious_activity_detected", ip, userAgent, details)
		}

		c.Next()
	}
}

func isScannerUserAgent(userAgent string) bool {
	scanners := []string{
		"sqlmap", "nmap", "masscan", "zmap",
		"dirbuster", "gobuster", "nikto", "acunetix",
	}

	lowered := strings.ToLower(userAgent)
	for _, s := range scanners {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	return false
}
