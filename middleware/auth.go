package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mindsprout/utils"
)

// ActorAuthMiddleware validates the bearer token issued by the auth system
// and stores the actor identity on the request context.
func ActorAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or malformed Authorization header"})
			return
		}

		claims, err := utils.ExtractActorFromToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("actorID", claims.ID)
		c.Set("actorRole", claims.Role)
		c.Next()
	}
}

// RequireRole rejects requests whose actor does not carry the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("actorRole") != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role for this operation"})
			return
		}
		c.Next()
	}
}
