package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/membersearch/internal/pkg"
)

// Recovery returns a gin middleware that recovers from panics, logs the error
// with stack trace using slog, and answers with the standard JSON envelope.
// When RequestID ran further down the chain, data carries the request ID so a
// client can quote it:
//
//	{"code": 500, "message": "internal server error", "data": {"request_id": "..."}}
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", err),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				resp := pkg.Response{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				}
				if id := GetRequestID(c); id != "" {
					resp.Data = gin.H{"request_id": id}
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}
