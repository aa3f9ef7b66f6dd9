package middleware

import (
	"crypto/rand"
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestIDConfig controls request-id reuse behavior.
type RequestIDConfig struct {
	TrustUpstream bool
}

// RequestID assigns a fresh request ID to every request and ignores
// upstream X-Request-ID headers.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig returns a gin middleware that tags each request with an
// ID. With TrustUpstream, a well-formed incoming X-Request-ID is kept;
// otherwise a random 26-character base32 ID is generated.
//
// The ID is stored in the gin.Context (see GetRequestID), echoed in the
// X-Request-ID response header, and attached to the request context through
// logger.WithContextAttrs so search and store logs carry it.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id string
		if cfg.TrustUpstream {
			if upstream := c.GetHeader(requestIDHeader); requestIDPattern.MatchString(upstream) {
				id = upstream
			}
		}
		if id == "" {
			id = rand.Text()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			logger.WithContextAttrs(c.Request.Context(), slog.String(requestIDContextKey, id)),
		)

		c.Next()
	}
}

// GetRequestID returns the ID set by RequestIDWithConfig, or "" when the
// middleware did not run.
func GetRequestID(c *gin.Context) string {
	id, _ := c.Get(requestIDContextKey)
	s, _ := id.(string)
	return s
}
