package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ",")
	corsAllowHeaders  = "Authorization,Content-Type,If-None-Match,X-Request-Id"
	corsExposeHeaders = "ETag,X-Request-Id,Retry-After,X-RateLimit-Limit,X-RateLimit-Remaining"
)

// CORSMiddleware admits the configured frontend origins. "*" admits any
// origin, which only makes sense in dev since credentials are allowed.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	wildcard := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (wildcard || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			h.Set("Access-Control-Max-Age", "600")
			h.Add("Vary", "Origin")
		}

		// preflights never reach the routes
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
