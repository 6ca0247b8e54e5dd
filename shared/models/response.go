package models

// Error codes returned in ErrorResponse bodies.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeStorage      = "STORAGE_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON error body for endpoints that signal failures via
// HTTP status codes (the /token group). The /auth group uses the in-body
// statusCode envelope instead.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
