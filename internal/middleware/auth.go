package middleware

import (
	"net/http"
	"strings"

	"reviewhub/internal/auth"
	"reviewhub/internal/permissions"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It checks for the presence and validity of a bearer token in the
// Authorization header and rejects the request when neither is there.
func AuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, issuer)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			c.Abort()
			return
		}
		setPrincipal(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves a principal when a valid bearer token is
// present but lets anonymous requests through. Read endpoints are public, so
// routes that mix public reads with gated writes hang off this one and leave
// the decision to the permission check in the handler.
func OptionalAuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, issuer); ok {
			setPrincipal(c, claims)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, issuer *auth.TokenIssuer) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	// Format: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := issuer.Verify(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setPrincipal(c *gin.Context, claims *auth.Claims) {
	c.Set(principalKey, permissions.Principal{
		UserID:        claims.UserID,
		Role:          claims.Role,
		Authenticated: true,
	})
	c.Set("userID", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
}

// Principal returns the request's principal, anonymous when no valid token
// was presented.
func Principal(c *gin.Context) permissions.Principal {
	if v, exists := c.Get(principalKey); exists {
		if p, ok := v.(permissions.Principal); ok {
			return p
		}
	}
	return permissions.Anonymous()
}
