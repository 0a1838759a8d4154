package middleware

import (
	"storefront/internal/domain"
	"storefront/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Require rejects anonymous callers with 401 and callers whose role lacks
// the capability with 403.
func Require(capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := IdentityFrom(c)
		if id.IsAnonymous() {
			response.Abort(c, ErrAuthRequired)
			return
		}
		if !id.Can(capability) {
			response.Abort(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc { return Require(domain.CapAuthenticated) }

func AdminOnly() gin.HandlerFunc { return Require(domain.CapAdminOrAbove) }

func SuperAdminOnly() gin.HandlerFunc { return Require(domain.CapSuperAdmin) }
