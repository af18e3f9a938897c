package middlewares

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/shareintent-go/tool"
)

// OriginAllowed reports whether a browser origin may use the API. Requests
// without an Origin header come from native callers and are always allowed.
func OriginAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

// AllowOrigins lets the configured webview or dev server origins reach the
// API and rejects every other browser origin.
func AllowOrigins(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !OriginAllowed(allowed, origin) {
			tool.DefaultLogger.Debugf("Rejected request from origin %s", origin)
			c.AbortWithStatusJSON(http.StatusForbidden, tool.FastReturnError("Origin not allowed"))
			return
		}
		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		if origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
