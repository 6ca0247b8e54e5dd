package handler

import (
	"errors"
	"fmt"
	"net/http"
	"unicode"

	"auth-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// login authenticates a user and returns the token pair. Failures are
// reported in-body with statusCode 0; only a persistence failure breaks the
// HTTP 200 convention.
func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, loginResponse{
			Token:      " ",
			StatusCode: statusFailure,
			Message:    "Please pass all required fields",
		})
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrStorage) {
			handleServiceError(c, err)
			return
		}
		// Wrong username and wrong password produce the same response.
		c.JSON(http.StatusOK, loginResponse{
			Token:      " ",
			Expiration: nil,
			StatusCode: statusFailure,
			Message:    "Invalid UserName or Password",
		})
		return
	}

	loginsTotal.Inc()

	resp := loginResponse{
		UserName:     req.UserName,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Expiration:   &pair.ExpiresAt,
		StatusCode:   statusSuccess,
		Message:      "Success",
	}
	if user, err := h.userRepo.FindByName(c.Request.Context(), req.UserName); err == nil {
		resp.Name = user.Name
	} else {
		zap.L().Warn("Could not load user profile after login", zap.Error(err), zap.String("username", req.UserName))
	}

	c.JSON(http.StatusOK, resp)
}

// register creates a new user account with the default role.
func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, statusResponse{StatusCode: statusFailure, Message: "Please pass all required fields"})
		return
	}

	if len(req.UserName) < minUsernameLength || len(req.UserName) > maxUsernameLength {
		c.JSON(http.StatusOK, statusResponse{
			StatusCode: statusFailure,
			Message:    fmt.Sprintf("Username length must be between %d and %d characters", minUsernameLength, maxUsernameLength),
		})
		return
	}
	if !usernameRegex.MatchString(req.UserName) {
		c.JSON(http.StatusOK, statusResponse{
			StatusCode: statusFailure,
			Message:    "Username can only contain letters, numbers, underscores, and hyphens",
		})
		return
	}

	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		c.JSON(http.StatusOK, statusResponse{
			StatusCode: statusFailure,
			Message:    fmt.Sprintf("Password length must be between %d and %d characters", minPasswordLength, maxPasswordLength),
		})
		return
	}
	var (
		hasLetter bool
		hasDigit  bool
	)
	for _, char := range req.Password {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			break
		}
	}
	if !hasLetter || !hasDigit {
		c.JSON(http.StatusOK, statusResponse{
			StatusCode: statusFailure,
			Message:    "Password must contain at least one letter and one digit",
		})
		return
	}

	_, err := h.authService.Register(c.Request.Context(), req.UserName, req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserAlreadyExists):
			c.JSON(http.StatusOK, statusResponse{StatusCode: statusFailure, Message: "Invalid UserName"})
		case errors.Is(err, models.ErrEmailAlreadyExists):
			c.JSON(http.StatusOK, statusResponse{StatusCode: statusFailure, Message: "Invalid Email"})
		case errors.Is(err, models.ErrInvalidInput):
			c.JSON(http.StatusOK, statusResponse{StatusCode: statusFailure, Message: "Please pass all required fields"})
		default:
			handleServiceError(c, err)
		}
		return
	}

	registrationsTotal.Inc()
	c.JSON(http.StatusOK, statusResponse{StatusCode: statusSuccess, Message: "User Created Successfully"})
}

// changePassword verifies the current password and replaces it.
func (h *AuthHandler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, statusResponse{StatusCode: statusFailure, Message: "Please pass all required fields"})
		return
	}

	if len(req.NewPassword) < minPasswordLength || len(req.NewPassword) > maxPasswordLength {
		c.JSON(http.StatusOK, statusResponse{
			StatusCode: statusFailure,
			Message:    fmt.Sprintf("Password length must be between %d and %d characters", minPasswordLength, maxPasswordLength),
		})
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), req.UserName, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			c.JSON(http.StatusOK, statusResponse{StatusCode: statusFailure, Message: "Invalid Current Password"})
		case errors.Is(err, models.ErrUserNotFound):
			c.JSON(http.StatusOK, statusResponse{StatusCode: statusFailure, Message: "Invalid UserName"})
		default:
			handleServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, statusResponse{StatusCode: statusSuccess, Message: "Password changed successfully"})
}
