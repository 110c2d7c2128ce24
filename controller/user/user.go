package user

import (
	"net/http"

	"taskmanager/middleware"

	"github.com/gin-gonic/gin"
)

func UserController(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.GET("/user", auth, func(c *gin.Context) {
		ReadUser(c)
	})
}

// ReadUser returns the authenticated principal.
func ReadUser(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
