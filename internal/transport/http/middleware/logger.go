package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appLogger "github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
)

// Logger emits one access log line per request. Client IPs and caller emails are masked.
func Logger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := appLogger.RequestIDFrom(c.Request.Context())

		c.Next()

		fields := []zap.Field{
			zap.String("trace_id", GetTraceID(c)),
			zap.String("request_id", requestID),
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", appLogger.MaskIP(reqctx.ClientIP(c.Request))),
		}

		if p, ok := reqctx.PrincipalFrom(c); ok && !p.IsAnonymous() {
			fields = append(fields, zap.String("principal", appLogger.MaskEmail(p.Email)))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}

		switch {
		case len(c.Errors) > 0:
			log.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= 500:
			log.Error("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
