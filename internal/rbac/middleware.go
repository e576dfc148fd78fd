package rbac

import (
	"net/http"

	"frontdesk-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAccount enforces the multi-tenant invariant: account_id must exist in context.
// This does not validate membership; that belongs to the authorization layer once persistence exists.
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		aid, err := auth.AccountID(c.Request.Context())
		if err != nil || aid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// Rules:
// - super_admin bypasses all checks
// - support is a hidden role and is denied unless explicitly allowed
// - account isolation is enforced via RequireAccount (use it in the chain)
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		if IsSuperAdmin(role) {
			c.Next()
			return
		}

		if IsHiddenRole(role) {
			if _, ok := allowedSet[role]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
