package domain

import "time"

// Role distinguishes end-users from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus represents account lifecycle states.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is the domain model for anyone who can sign in: end-users who
// raise tickets and administrators who manage them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Contact      string
	EmployeeCode string
	Location     string
	Company      string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// RoleLabel returns the display label used in system-authored notes.
func (u *User) RoleLabel() string {
	if u.IsAdmin() {
		return "Staff"
	}
	return "User"
}
