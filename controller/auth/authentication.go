package auth

import (
	"net/http"

	"taskmanager/controller/respond"
	"taskmanager/dto"
	"taskmanager/middleware"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

func AuthController(router *gin.RouterGroup, users *services.UserService, tokens *services.TokenService, auth gin.HandlerFunc) {
	router.POST("/register", func(c *gin.Context) {
		Register(c, users)
	})
	router.POST("/login", func(c *gin.Context) {
		Login(c, users, tokens)
	})
	router.POST("/logout", auth, func(c *gin.Context) {
		Logout(c, tokens)
	})
}

func Register(c *gin.Context, users *services.UserService) {
	var req dto.RegisterRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	user, err := users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func Login(c *gin.Context, users *services.UserService, tokens *services.TokenService) {
	var req dto.LoginRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	user, err := users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}
	token, err := tokens.Issue(c.Request.Context(), user, services.DefaultTokenName)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: user})
}

// Logout revokes every token of the current user, not just the one in use.
func Logout(c *gin.Context, tokens *services.TokenService) {
	if err := tokens.RevokeAll(c.Request.Context(), middleware.CurrentUser(c).ID); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
