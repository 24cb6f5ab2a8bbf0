package monitoring

import (
	"log/slog"
	"os"
	"time"
)

var startTime = time.Now()

// Logger wraps slog with helpers for the service's recurring log shapes.
type Logger struct {
	*slog.Logger
}

// NewLogger builds a JSON logger writing to stdout.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs one handled HTTP request.
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// PredictionLogger logs one served prediction outcome.
func (l *Logger) PredictionLogger(variant string, vulnerable bool, probability float64, riskLevel string, fallbacks int, duration time.Duration, cacheHit bool) {
	l.Info("Prediction Served",
		"variant", variant,
		"vulnerable", vulnerable,
		"probability", probability,
		"risk_level", riskLevel,
		"fallback_fields", fallbacks,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// APIErrorLogger logs a request that ended in an error response.
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// SecurityLogger logs rate limiting and other security events.
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}
	l.Warn("Security Event", attrs...)
}

// SystemLogger logs lifecycle events with process uptime.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SetLevel replaces the handler with one at the given level.
func (l *Logger) SetLevel(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	l.Logger = slog.New(handler)
}
