package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewtask/crewtask/internal/api/domain"
	"github.com/crewtask/crewtask/internal/api/store"
	"github.com/crewtask/crewtask/pkg/slogx"
)

// UserService exposes account queries and admin-only account management.
type UserService struct {
	Store store.Store
}

// Get returns the public view of a single user.
func (s *UserService) Get(ctx context.Context, userID string) (domain.PublicUser, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PublicUser{}, ErrNotFound
		}
		return domain.PublicUser{}, fmt.Errorf("user lookup: %w", err)
	}

	role, err := s.primaryRole(ctx, user.ID)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return user.Public(role), nil
}

// List returns the public view of every user. Admin only, enforced at the
// transport layer.
func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}

	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		role, err := s.primaryRole(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, u.Public(role))
	}
	return out, nil
}

// Delete removes a user. The schema cascades role assignments and team
// memberships; authored todos survive with created_by set null.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("user delete: %w", err)
	}
	slogx.FromContext(ctx).Info("user deleted", "user_id", userID)
	return nil
}

// Promote grants the user an extra system role by name.
func (s *UserService) Promote(ctx context.Context, userID, roleName string) error {
	role, err := s.Store.Roles().GetSystemRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown role %q", ErrValidation, roleName)
		}
		return fmt.Errorf("role lookup: %w", err)
	}

	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("user lookup: %w", err)
	}

	return s.Store.Roles().AssignSystemRole(ctx, userID, role.ID)
}

func (s *UserService) primaryRole(ctx context.Context, userID string) (string, error) {
	roles, err := s.Store.Roles().ListUserSystemRoles(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("role lookup: %w", err)
	}
	if len(roles) == 0 {
		return domain.RoleTodoUser, nil
	}
	return roles[0].Name, nil
}
