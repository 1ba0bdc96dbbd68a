package domain

import (
	"strings"
	"time"
)

// UserRole decides which observation view a user may open.
type UserRole string

const (
	UserRoleAdministrative UserRole = "administrative"
	UserRoleSupport        UserRole = "support"
)

// Label returns the role name shown to people and kept in legacy user documents.
func (r UserRole) Label() string {
	if r == UserRoleSupport {
		return "Soporte"
	}
	return "Usuario Administrativo"
}

// ParseUserRole accepts canonical role names and the legacy labels.
func ParseUserRole(raw string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "administrative", "usuario administrativo", "administrativo":
		return UserRoleAdministrative, true
	case "support", "soporte":
		return UserRoleSupport, true
	}
	return "", false
}

// User is an account that can submit and observe tickets.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	NationalID     string
	Extension      string
	Department     string
	Role           UserRole
	Email          string
	AlternateEmail string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
