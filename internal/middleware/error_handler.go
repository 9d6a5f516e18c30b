package middleware

import (
	"net/http"
	"strings"
	"time"

	"pdvinova/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const internalErrorMsg = "Erro interno do servidor"

// abortInternal answers 500 in the envelope the route speaks: the WhatsApp
// relay routes live outside /v1 and use {success, error}.
func abortInternal(c *gin.Context) {
	if c.Writer.Written() {
		c.Abort()
		return
	}
	if strings.HasPrefix(c.Request.URL.Path, "/v1/") {
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(internalErrorMsg))
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.RelayFail(internalErrorMsg))
}

// ErrorHandler logs errors attached with c.Error and, if the handler wrote
// nothing, answers 500. Internal details never reach the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Int("errors", len(c.Errors)).
			Err(err.Err).
			Msg("unhandled error")

		abortInternal(c)
	}
}

// Recovery converts panics into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Msg("panic recovered")
				abortInternal(c)
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency and request_id.
// Health probes are logged at debug level.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			ev = log.Error()
		case c.Request.URL.Path == "/health":
			ev = log.Debug()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
