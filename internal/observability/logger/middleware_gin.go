package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/shoecare/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-Id"

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware stamps a request id on the context and writes one
// http_request line per request.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c)
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := strings.TrimSpace(c.FullPath())
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		fields := make([]zap.Field, 0, 12)
		fields = append(fields,
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		)
		if id := strings.TrimSpace(c.Param("id")); id != "" {
			fields = append(fields, zap.String(resourceKey(route), id))
		}
		if last := c.Errors.Last(); last != nil {
			errorType, errorCode := "", ""
			if cfg.ErrorClassifier != nil {
				errorType, errorCode = cfg.ErrorClassifier(last.Err)
			}
			fields = append(fields, zap.String("error_type", errorType), zap.String("error_code", errorCode))
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		if ce := FromContext(c.Request.Context()).Check(requestLevel(route, status), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestIDFor(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(requestIDHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetString("request_id")); id != "" {
		return id
	}
	return uuid.NewString()
}

// resourceKey names the path id after the resource the route serves.
func resourceKey(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/orders"), strings.HasPrefix(route, "/public/track"):
		return "order_id"
	case strings.HasPrefix(route, "/api/customers"):
		return "customer_id"
	case strings.HasPrefix(route, "/api/services"):
		return "service_id"
	case strings.HasPrefix(route, "/api/expenses"):
		return "expense_id"
	default:
		return "resource_id"
	}
}

// requestLevel keeps probes, photo fetches and throttled tracking lookups out
// of the info stream.
func requestLevel(route string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case route == "/metrics", route == "/health":
		return zapcore.DebugLevel
	case strings.HasPrefix(route, "/photos"):
		return zapcore.DebugLevel
	case strings.HasPrefix(route, "/public/track") && status == http.StatusTooManyRequests:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
