package models

import "errors"

var (
	// User & Credential Errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Token Record Errors
	ErrRecordNotFound = errors.New("token record not found")

	// Persistence Errors
	ErrStorage = errors.New("storage error")

	// General Request Errors
	ErrInvalidInput = errors.New("invalid input data")
)
