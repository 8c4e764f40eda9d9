package dto

import (
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Contact      string            `json:"contact"`
	EmployeeCode string            `json:"employeeCode"`
	Location     string            `json:"location"`
	Company      string            `json:"company"`
	Role         domain.Role       `json:"role"`
	Status       domain.UserStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// AdminUpdateUserRequest is the admin patch of role/status.
type AdminUpdateUserRequest struct {
	Role   *domain.Role       `json:"role" validate:"omitempty,oneof=user admin"`
	Status *domain.UserStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateProfileRequest is the self-service profile patch.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Contact  *string `json:"contact"`
	Location *string `json:"location"`
	Company  *string `json:"company"`
}
