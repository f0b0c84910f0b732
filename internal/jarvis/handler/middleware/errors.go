package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/redact"
)

// RequestID stamps every request with an X-Request-Id, generating one when
// the caller did not supply it, and exposes it to downstream handlers via
// gin's context for inclusion in error bodies.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// RespondError writes the uniform error body described in the error
// handling design: {error, message, details?, requestId, traceId, path,
// method, statusCode, timestamp}.
func RespondError(c *gin.Context, err error) {
	apiErr, ok := apierr.As(err)
	if !ok {
		apiErr = apierr.Wrap(apierr.Internal, "", err)
	}

	requestID, _ := c.Get("request_id")
	body := gin.H{
		"error":      string(apiErr.Kind),
		"message":    apiErr.Message,
		"requestId":  requestID,
		"traceId":    c.GetHeader("X-Trace-Id"),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"statusCode": apiErr.HTTPStatus(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if apiErr.Details != nil {
		body["details"] = redact.ForLog(apiErr.Details)
	}
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), body)
}
