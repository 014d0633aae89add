package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/ledgerhub/internal/actorctx"
	"github.com/geocoder89/ledgerhub/internal/auth"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// DenialObserver counts authorization failures; observability.Prom
// implements it.
type DenialObserver interface {
	ObserveDenied(reason string)
}

type AuthMiddleware struct {
	jwt TokenVerifier
	obs DenialObserver
}

func NewAuthMiddleware(jwt TokenVerifier, obs DenialObserver) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, obs: obs}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		// Stash the trusted claim bundle on the context
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxFullName, claims.FullName)
		c.Set(CtxRoles, claims.RoleSet())

		// services see the caller through the request context
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

// Helpers so handlers don't need to know the keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func RolesFromContext(c *gin.Context) role.Set {
	v, ok := c.Get(CtxRoles)
	if !ok {
		return role.Set{}
	}
	set, ok := v.(role.Set)
	if !ok {
		return role.Set{}
	}
	return set
}

func RequestIDFromContext(c *gin.Context) string {
	v, ok := c.Get(CtxRequestID)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
