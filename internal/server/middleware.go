package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinrhaas/glossary/internal/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	loggerKey       = "logger"
)

// requestID propagates X-Request-ID or assigns a new one, and stores a
// request-scoped logger in the context.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Header(requestIDHeader, id)
		c.Set(requestIDKey, id)
		c.Set(loggerKey, s.logger.With(requestIDKey, id))
		c.Next()
	}
}

// requestLogger logs one line per request once the handler has finished.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := loggerFrom(c, s.logger)
		event := l.Debug()
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

// recovery converts a handler panic into a 500 envelope.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				loggerFrom(c, s.logger).Error().
					Str("panic", fmt.Sprintf("%v", rec)).
					Str("path", c.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("Panic recovered in HTTP handler")
				abortWithError(c, http.StatusInternalServerError, "Internal server error", "")
			}
		}()
		c.Next()
	}
}

func loggerFrom(c *gin.Context, fallback *logging.Logger) *logging.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*logging.Logger); ok {
			return l
		}
	}
	return fallback
}
