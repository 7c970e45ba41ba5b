package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/sirupsen/logrus"
)

const HeaderCorrelationId = "x-correlation-id"

// CorrelationMiddleware generates the id once per request, attaches it to the context and echoes it back.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(HeaderCorrelationId)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header(HeaderCorrelationId, cid)
		c.Next()
	}
}

// ReadinessGate answers 503 until ready reports true. /healthz always passes.
func ReadinessGate(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}
		if !ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service is starting"})
			return
		}
		c.Next()
	}
}

// ErrorLogger logs only requests that recorded errors.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"method":         c.Request.Method,
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}
