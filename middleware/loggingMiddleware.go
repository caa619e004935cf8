package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-restaurant-ordering/logging"
)

const RequestIDHeader = "X-Request-Id"

// Logging assigns a request id, injects a request-scoped logger and logs the
// outcome of every request.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, reqID)
		}
		c.Header(RequestIDHeader, reqID)

		l := base.With(
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"remote", c.ClientIP(),
		)
		logging.With(c, l)

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"dur_ms", time.Since(start).Milliseconds(),
			"resp_bytes", c.Writer.Size(),
		}
		if uid := c.GetString(uidKey); uid != "" {
			attrs = append(attrs, "uid", uid)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", attrs...)
		default:
			l.Info("http_request", attrs...)
		}
	}
}
