package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/identity"
)

const identityKey = "identity"

// AuthMiddleware verifies the bearer token and sets the caller identity.
// Requests without a valid token are rejected.
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return authenticate(provider, true)
}

// OptionalAuthMiddleware sets the caller identity when a bearer token is
// present. Requests without one proceed as signed out; a bad token is still
// rejected.
func OptionalAuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return authenticate(provider, false)
}

func authenticate(provider identity.Provider, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with 'Bearer '"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
			c.Abort()
			return
		}

		ident, err := provider.Verify(c.Request.Context(), token)
		if err != nil || ident == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(identityKey, ident)
		c.Set("uid", ident.UID)
		c.Next()
	}
}

// IdentityFrom returns the identity set by the auth middlewares, or nil.
func IdentityFrom(c *gin.Context) *identity.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*identity.Identity)
	return ident
}
