package handler

import "time"

// The /auth endpoints answer HTTP 200 with an in-body statusCode: 1 for
// success, 0 for failure. Clients switch on statusCode, not on HTTP status.
const (
	statusFailure = 0
	statusSuccess = 1
)

type loginRequest struct {
	UserName string `json:"userName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Name         string     `json:"name,omitempty"`
	UserName     string     `json:"userName,omitempty"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	Expiration   *time.Time `json:"expiration"`
	StatusCode   int        `json:"statusCode"`
	Message      string     `json:"message"`
}

type registerRequest struct {
	UserName string `json:"userName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	UserName        string `json:"userName" binding:"required"`
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// statusResponse is the envelope for register and changepassword.
type statusResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type refreshRequest struct {
	AccessToken  string `json:"accessToken" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type refreshResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Expiration   time.Time `json:"expiration"`
}
