package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
)

const (
	// TraceIDHeader carries the trace identifier in and out of the service.
	TraceIDHeader = "X-Trace-ID"
	traceIDKey    = "trace_id"
)

// EnrichContext resolves the request's trace ID and exposes it to loggers and
// downstream spans. An incoming W3C traceparent wins over X-Trace-ID; a fresh
// UUID is used when neither is present.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		var traceID string
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else if traceID = c.GetHeader(TraceIDHeader); traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(context.WithValue(ctx, logger.TraceIDKey{}, traceID))

		c.Next()
	}
}

// GetTraceID returns the trace ID assigned by EnrichContext.
func GetTraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}
