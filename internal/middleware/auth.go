package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/musikito/imagigenie/internal/identity" // Identity mapping service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/golang-jwt/jwt/v5" // JWT library
)

// AuthMiddleware validates the identity provider's session token and resolves
// the token subject to a User record, created on first sight. The internal
// user id is stored in the Gin context under "userID".
func AuthMiddleware(secret string, users *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
			return []byte(secret), nil // Shared secret with the identity provider
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		user, err := users.EnsureUser(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
			return
		}
		c.Set("userID", user.ID) // Store internal user id in context
		c.Next()                 // Proceed to the next handler
	}
}
