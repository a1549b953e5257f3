package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/telemetry"
)

const logFieldsKey = "logFields"

// Request log fields handlers commonly attach.
const (
	FieldLetterID   = "letter_id"
	FieldExportID   = "export_id"
	FieldTransition = "status_transition"
	FieldRenderPath = "render_path"
)

// LogField adds a field to this request's completion log.
func LogField(c *gin.Context, key string, value any) {
	raw, _ := c.Get(logFieldsKey)
	fields, _ := raw.(map[string]any)
	if fields == nil {
		fields = make(map[string]any)
		c.Set(logFieldsKey, fields)
	}
	fields[key] = value
}

// Logging emits one structured log per request once the handler returns.
// Preflight requests are not logged.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"route":       route,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes":       c.Writer.Size(),
			"user_id":     UserIDFromContext(c),
			"is_guest":    IsGuest(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if raw, ok := c.Get(logFieldsKey); ok {
			extra, _ := raw.(map[string]any)
			for k, v := range extra {
				fields[k] = v
			}
		}
		switch {
		case status >= 500:
			telemetry.Error("request.complete", fields)
		case status >= 400:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
