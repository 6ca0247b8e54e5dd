package handler

import (
	"errors"
	"net/http"

	"auth-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// invalidClientRequest is the uniform /token rejection: the caller learns
// nothing about which check failed.
func invalidClientRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    models.ErrCodeBadRequest,
		Message: "Invalid Client Request",
	})
}

// refresh exchanges a signed (possibly expired) access token plus the stored
// refresh token for a new pair.
func (h *AuthHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidClientRequest(c)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		if errors.Is(err, models.ErrTokenInvalid) {
			tokenVerificationsTotal.WithLabelValues("refresh", "failure").Inc()
			invalidClientRequest(c)
			return
		}
		handleServiceError(c, err)
		return
	}

	refreshesTotal.Inc()
	tokenVerificationsTotal.WithLabelValues("refresh", "success").Inc()

	c.JSON(http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Expiration:   pair.ExpiresAt,
	})
}

// revoke clears the caller's stored refresh token. The caller's identity
// comes from the middleware-validated access token, never from the body.
func (h *AuthHandler) revoke(c *gin.Context) {
	userName := c.GetString("user_name")
	if userName == "" {
		zap.L().Error("Username missing in context during revoke")
		invalidClientRequest(c)
		return
	}

	if err := h.authService.Revoke(c.Request.Context(), userName); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			invalidClientRequest(c)
			return
		}
		handleServiceError(c, err)
		return
	}

	revocationsTotal.Inc()
	c.Status(http.StatusOK)
}
