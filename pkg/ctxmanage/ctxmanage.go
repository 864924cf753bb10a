package ctxmanage

import (
	"github.com/gin-gonic/gin"
)

type key string

// TraceIdKey is the gin context key under which the logger middleware
// stores the per-request trace id.
const TraceIdKey key = "1"

// GetTraceIdOfRequest returns the trace id set by the logger middleware,
// or "unknown" if the middleware did not run.
func GetTraceIdOfRequest(c *gin.Context) string {
	ctx := c.Request.Context()
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok {
		return "unknown"
	}
	return traceId
}
