package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitBody caps the request body at maxBytes; reads past it fail and the
// handler reports a 400.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return LimitBodyPerRoute(maxBytes, nil)
}

// LimitBodyPerRoute is LimitBody with per-route caps keyed by "METHOD /full/path"
// (the registered gin pattern, e.g. "POST /api/check-ins").
func LimitBodyPerRoute(maxBytes int64, routes map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if override, ok := routes[c.Request.Method+" "+c.FullPath()]; ok {
			limit = override
		}
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
