package middlewares

import (
	"net/http"

	"github.com/geocoder89/ledgerhub/internal/authz"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/gin-gonic/gin"
)

// RequireAnyRole gates a route group on the caller holding one of roles.
// Ownership is not known at this point; handlers finish the decision once
// they have loaded the resource.
func (m *AuthMiddleware) RequireAnyRole(roles ...role.Role) gin.HandlerFunc {
	required := role.NewSet(roles...)

	return func(c *gin.Context) {
		callerID, ok := UserIDFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		// the caller owns their own scope at the route level
		d := authz.Authorize(RolesFromContext(c), required, callerID, callerID)
		if !d.Allowed() {
			m.denied(d)
			abortWithError(c, http.StatusForbidden, "forbidden", "Insufficient role")
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromContext(c); !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		if d := authz.AuthorizeAdmin(RolesFromContext(c)); !d.Allowed() {
			m.denied(d)
			abortWithError(c, http.StatusForbidden, "forbidden", "Admin role required")
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) denied(d authz.Decision) {
	if m.obs != nil {
		m.obs.ObserveDenied(d.String())
	}
}
