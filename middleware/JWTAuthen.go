package middleware

import (
	"strings"

	"taskmanager/apperror"
	"taskmanager/model"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID  = "userId"
	ContextUser    = "user"
	ContextTokenID = "tokenId"
)

// AccessTokenMiddleware resolves the bearer token into the current user and
// stores it on the context. Requests without a live token get 401.
func AccessTokenMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Request.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(401, gin.H{"error": services.MessageUnauthenticated})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		user, token, err := tokens.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if apperror.Is(err, apperror.KindUnauthenticated) {
				c.AbortWithStatusJSON(401, gin.H{"error": services.MessageUnauthenticated})
				return
			}
			c.AbortWithStatusJSON(500, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Set(ContextTokenID, token.ID)
		c.Next()
	}
}

// CurrentUser returns the principal set by AccessTokenMiddleware.
func CurrentUser(c *gin.Context) *model.User {
	return c.MustGet(ContextUser).(*model.User)
}
