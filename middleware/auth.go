package middleware

import (
	"net/http"
	"strings"

	"fundihub/models"
	"fundihub/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// JWTAuthMiddleware validates the bearer token and stores the acting party
// in the request context for handlers.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actor, err := utils.ActorFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// AdminOnlyMiddleware rejects any request whose actor is not an admin.
// It must run after JWTAuthMiddleware.
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// GetActor retrieves the authenticated actor set by JWTAuthMiddleware.
func GetActor(c *gin.Context) models.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}
	}
	actor, _ := v.(models.Actor)
	return actor
}
