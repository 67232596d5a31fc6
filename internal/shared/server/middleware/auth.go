package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docdash-backend/internal/shared/auth"
	"docdash-backend/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	orgIDKey       = "orgId"
	workspaceIDKey = "workspaceId"
	userEmailKey   = "userEmail"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth validates the bearer session token and stores the caller identity in context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" || verifier == nil {
			respond.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "Unauthorized", err)
			return
		}

		id := auth.IdentityFromClaims(claims)
		c.Set(userIDKey, id.UserID)
		c.Set(workspaceIDKey, id.WorkspaceID())
		if id.OrgID != "" {
			c.Set(orgIDKey, id.OrgID)
		}
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Next()
	}
}

// IdentityFromContext returns the identity set by the auth middleware and
// whether one is present.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	if c == nil {
		return auth.Identity{}, false
	}
	id := auth.Identity{
		UserID: c.GetString(userIDKey),
		OrgID:  c.GetString(orgIDKey),
	}
	if id.UserID == "" {
		return auth.Identity{}, false
	}
	return id, true
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// WorkspaceIDFromContext fetches the workspace scope set by the auth middleware.
func WorkspaceIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(workspaceIDKey)
}
