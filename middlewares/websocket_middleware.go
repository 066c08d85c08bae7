package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/dimasprakoso/penagihan-app/utils"
)

// WebSocketAuthMiddleware otentikasi via query param karena browser tidak
// bisa mengirim header Authorization di handshake WebSocket.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}
