package api

import (
	"net/http"

	"counseling-platform/backend/pkg/errors"
	"counseling-platform/backend/pkg/jwt"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/middleware"
	"counseling-platform/backend/user/models"
	"counseling-platform/backend/user/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users  *service.UserService
	tokens *jwt.Service
}

func NewUserHandler(users *service.UserService, tokens *jwt.Service) *UserHandler {
	return &UserHandler{users: users, tokens: tokens}
}

// Signup creates a new account
func (h *UserHandler) Signup(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	user, err := h.users.Register(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user.ToResponse())
}

// Login verifies credentials and returns a token
func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	user, token, err := h.users.Authenticate(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.ToResponse()})
}

// Me returns the authenticated account
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := c.MustGet("claims").(*jwt.Claims)
	if !ok {
		c.Error(errors.NewUnauthorizedError("UNAUTHORIZED", "missing claims"))
		return
	}

	user, err := h.users.GetByID(claims.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// RegisterRoutes registers auth and account routes on the given group
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.GET("/me", middleware.JWTAuthMiddleware(h.tokens, logger.GetGlobal()), h.Me)
	}
}
