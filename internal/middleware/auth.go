package middleware

import (
	"errors"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/jwt"
	"storefront/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

var (
	ErrTokenInvalid = apperr.Auth("INVALID_TOKEN", "Invalid token")
	ErrTokenExpired = apperr.Auth("TOKEN_EXPIRED", "Token expired")
	ErrAuthRequired = apperr.Auth("AUTH_REQUIRED", "Authentication credentials were not provided")
	ErrForbidden    = apperr.Permission("FORBIDDEN", "You do not have permission to perform this action")
)

// TokenVerifier is the access-token half of the token manager.
type TokenVerifier interface {
	Verify(token, expectedType string) (*jwt.Claims, error)
}

// Authenticate resolves the caller from `Authorization: Bearer <token>`.
// Requests without a bearer token continue as anonymous; a presented token
// that fails verification is rejected with 401.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			setIdentity(c, domain.Anonymous())
			c.Next()
			return
		}

		claims, err := verifier.Verify(token, jwt.TokenTypeAccess)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Abort(c, ErrTokenExpired)
				return
			}
			response.Abort(c, ErrTokenInvalid)
			return
		}

		role, ok := domain.ParseRole(claims.Role)
		if !ok {
			response.Abort(c, ErrTokenInvalid)
			return
		}
		setIdentity(c, domain.Identity{UserID: claims.UserID, Username: claims.Username, Role: role})
		c.Next()
	}
}

// IdentityFrom returns the caller attached by Authenticate, or anonymous.
func IdentityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Anonymous()
}

func setIdentity(c *gin.Context, id domain.Identity) {
	c.Set(identityKey, id)
	c.Set("user_id", id.UserID)
	c.Set("role", string(id.Role))
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
