package handler

import (
	"auth-server/internal/config"
	"auth-server/internal/service"
	"auth-server/shared/interfaces"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	userRepo    interfaces.UserRepository
	cfg         *config.Config
}

func NewAuthHandler(authService service.AuthService, userRepo interfaces.UserRepository, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userRepo:    userRepo,
		cfg:         cfg,
	}
}

// RegisterRoutes wires the two route families: /auth uses the in-body
// statusCode envelope, /token uses plain HTTP status codes. rateLimiter may
// be nil (tests, local runs without Redis).
func (h *AuthHandler) RegisterRoutes(router *gin.Engine, rateLimiter gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	if rateLimiter != nil {
		authGroup.Use(rateLimiter)
	}
	{
		authGroup.POST("/login", h.login)
		authGroup.POST("/register", h.register)
		authGroup.POST("/changepassword", h.changePassword)
	}

	tokenGroup := router.Group("/token")
	{
		tokenGroup.POST("/refresh", h.refresh)
		tokenGroup.POST("/revoke", h.AuthMiddleware(), h.revoke)
	}
}
