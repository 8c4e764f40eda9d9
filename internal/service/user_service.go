package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// UserService owns account listing and mutation. Accounts are never
// hard-deleted; deactivation flips the status flag.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// UserAdminPatch is the typed set of admin-updatable account fields.
type UserAdminPatch struct {
	Role   *domain.Role
	Status *domain.UserStatus
}

// ProfilePatch is the typed set of self-updatable profile fields.
type ProfilePatch struct {
	Name     *string
	Contact  *string
	Location *string
	Company  *string
}

// List returns all accounts newest-first, with password hashes stripped.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// UpdateByAdmin applies role/status changes to an account.
func (s *UserService) UpdateByAdmin(ctx context.Context, id string, patch UserAdminPatch) (*domain.User, error) {
	if patch.Role != nil && *patch.Role != domain.RoleUser && *patch.Role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *patch.Role})
	}
	if patch.Status != nil && *patch.Status != domain.UserStatusActive && *patch.Status != domain.UserStatusInactive {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *patch.Status})
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile applies self-service profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*domain.User, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperrors.NewValidationError("name cannot be blank", nil)
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Contact != nil {
		user.Contact = *patch.Contact
	}
	if patch.Location != nil {
		user.Location = *patch.Location
	}
	if patch.Company != nil {
		user.Company = *patch.Company
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
