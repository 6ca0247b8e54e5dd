package models

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// HasRole reports whether the given role is present in the list.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
