package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)
		ctx.Next()
	}
}

// RequireJSON rejects write requests whose body is not JSON. Bodyless writes
// (DELETE, or a PUT with no payload) pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || mt != "application/json" {
				abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
