package logger

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sensitiveQueryKeys are masked before a query string is logged.
// WooCommerce clients may authenticate with consumer keys in the query.
var sensitiveQueryKeys = map[string]bool{
	"consumer_key":    true,
	"consumer_secret": true,
	"access_token":    true,
	"token":           true,
	"hmac":            true,
	"signature":       true,
}

// RedactQuery masks the values of credential-bearing query parameters
func RedactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparseable]"
	}
	for key := range values {
		if sensitiveQueryKeys[strings.ToLower(key)] {
			values[key] = []string{"[REDACTED]"}
		}
	}
	return values.Encode()
}

// GinMiddleware returns a gin middleware that logs HTTP requests. It stores
// the request logger and request ID in the request context; the final entry
// also carries any merchant or connection ID that handlers added to it.
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		ctx := c.Request.Context()
		if requestID := c.GetString("request_id"); requestID != "" {
			ctx = WithRequestID(ctx, requestID)
		}
		reqLogger := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
		c.Request = c.Request.WithContext(WithContext(ctx, reqLogger))

		c.Next()

		ctx = c.Request.Context()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", RedactQuery(query)))
		}
		if merchantID := c.GetString("merchant_id"); merchantID != "" && GetMerchantID(ctx) == "" {
			fields = append(fields, zap.String("merchant_id", merchantID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		log := L(ctx)
		msg := "HTTP Request"
		switch {
		case status >= http.StatusInternalServerError:
			log.Error(msg, fields...)
		case status >= http.StatusBadRequest:
			log.Warn(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
	}
}

// Recovery returns a gin middleware that recovers from panics and logs them
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.String("request_id", c.GetString("request_id")),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": "ERR_INTERNAL", "message": "internal server error"},
				})
			}
		}()
		c.Next()
	}
}
