package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/riskline/credit-scoring/pkg/utils"
)

// TraceID attaches a trace identifier to every request: the caller's header
// value when present, a fresh UUID otherwise. The ID lands in the request
// context for handlers and is echoed on the response header so clients can
// correlate a prediction with the server logs.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.Request.Header.Get(pkg.HeaderTraceId)
		if utils.IsEmpty(traceID) {
			traceID = uuid.New().String()
		}
		c.Set(pkg.TraceId, traceID)
		c.Writer.Header().Set(pkg.HeaderTraceId, traceID)
		c.Next()
	}
}
