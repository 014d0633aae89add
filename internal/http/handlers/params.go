package handlers

import (
	"strconv"

	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/gin-gonic/gin"
)

// pageFromQuery reads the zero-based `page` and `size` (alias `pageSize`)
// query parameters.
func pageFromQuery(ctx *gin.Context) (page.Request, bool) {
	req := page.Request{Page: 0, Size: page.DefaultSize}

	if v := ctx.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			RespondBadRequest(ctx, "page must be an integer", gin.H{"field": "page"})
			return page.Request{}, false
		}
		req.Page = n
	}

	size := ctx.Query("size")
	if size == "" {
		size = ctx.Query("pageSize")
	}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			RespondBadRequest(ctx, "size must be an integer", gin.H{"field": "size"})
			return page.Request{}, false
		}
		req.Size = n
	}

	if err := req.Validate(); err != nil {
		RespondDomainError(ctx, err)
		return page.Request{}, false
	}
	return req, true
}
