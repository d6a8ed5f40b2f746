package domain

import "time"

// Role enumerates principal roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// ValidRole reports whether r is an accepted value.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleViewer
}

// User is the domain model for API principals.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
