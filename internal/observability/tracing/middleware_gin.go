package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/shoecare/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware opens a server span per request. The span is renamed to the
// matched route once routing is done, and carries the caller role and the
// order id for order and tracking routes.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("shoecare/http")
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		}
		// ActorRole replaces the request context, so read it after the chain ran.
		if role := obscontext.ActorRoleFromContext(c.Request.Context()); role != "" {
			attrs = append(attrs, attribute.String("shoecare.actor_role", role))
		}
		if orderID := orderIDFromRoute(route, c); orderID != "" {
			attrs = append(attrs, attribute.String("shoecare.order_id", orderID))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		if status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
	}
}

func orderIDFromRoute(route string, c *gin.Context) string {
	if !strings.HasPrefix(route, "/api/orders/") && !strings.HasPrefix(route, "/public/track/") {
		return ""
	}
	return strings.TrimSpace(c.Param("id"))
}
