package handler

import "regexp"

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
	maxPasswordLength = 100
)

// Allowed characters in a username.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
