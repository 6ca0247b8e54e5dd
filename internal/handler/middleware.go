package handler

import (
	"strings"

	"auth-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware guards routes that require a currently valid, non-expired
// access token. Refresh deliberately does not pass through here.
func (h *AuthHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			zap.L().Warn("Authorization header missing")
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			zap.L().Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		claims, err := h.authService.ValidateAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			zap.L().Warn("Access token validation failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("access", "success").Inc()
		c.Set("user_name", claims.Name)
		c.Set("access_uuid", claims.ID)
		c.Next()
	}
}
