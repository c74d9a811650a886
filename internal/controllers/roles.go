package controllers

import "github.com/zaqqye/toolcrib/internal/access"

func IsValidRole(role string) bool {
	_, ok := access.ParseRole(role)
	return ok
}

// IsValidUserWorkshop accepts any workshop a user can be assigned to,
// including All.
func IsValidUserWorkshop(w string) bool {
	return access.Workshop(w).Known()
}

// IsValidToolWorkshop accepts only workshops that can own tools and tasks.
func IsValidToolWorkshop(w string) bool {
	return access.Workshop(w).Concrete()
}
