package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag answers 304 when the client already holds an equivalent
// payload. The tag hashes tagSource, or the payload itself when tagSource is
// nil, so callers can leave volatile fields out of the comparison. The
// response is private because it is derived from per-user data.
func RespondJSONWithETag(ctx *gin.Context, status int, payload, tagSource interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	tagged := body
	if tagSource != nil {
		if tagged, err = json.Marshal(tagSource); err != nil {
			tagged = body
		}
	}

	sum := sha256.Sum256(tagged)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "private, no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

func etagMatches(header, current string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, part := range strings.Split(header, ",") {
		// weak validators (W/"abc") compare equal for GET
		if strings.TrimPrefix(strings.TrimSpace(part), "W/") == current {
			return true
		}
	}
	return false
}
