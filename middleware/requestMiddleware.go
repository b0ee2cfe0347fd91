package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger tags every request with an id and logs one line when it ends.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		start := time.Now()
		c.Next()

		extra := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			log.Error(requestID, "http_request", "Request failed", err, extra)
			return
		}
		log.Info(requestID, "http_request", "Request handled", extra)
	}
}

// RequestTimeout bounds the context handlers pass to services.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ErrorHandler renders the last error a handler attached with c.Error.
// With debug set, internal errors also carry their detail.
func ErrorHandler(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		err := last.Err
		var appErr *helpers.AppError
		if !errors.As(err, &appErr) {
			appErr = helpers.Internal("internal server error", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			appErr = helpers.Unavailable("request timed out")
		}

		body := gin.H{"message": appErr.Message}
		if debug && appErr.Kind == helpers.KindInternal && appErr.Err != nil {
			body["error"] = appErr.Err.Error()
		}
		c.JSON(appErr.Kind.HTTPStatus(), body)
	}
}

// Recovery turns panics into a 500. With debug set the response carries the stack.
func Recovery(log *logger.Logger, debugMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				err := fmt.Errorf("panic: %v", rec)
				log.Error(RequestID(c), "panic_recovered", "Recovered from panic", err, map[string]interface{}{"path": c.Request.URL.Path})

				body := gin.H{"message": "internal server error"}
				if debugMode {
					body["error"] = err.Error()
					body["stack"] = stack
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}
