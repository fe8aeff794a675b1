package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vansales-service/internal/models"
	"vansales-service/internal/store"
	"vansales-service/internal/util"
)

const minPasswordLength = 6

// UserService manages agent and admin accounts
type UserService struct {
	users  UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserRepository) *UserService {
	return &UserService{
		users:  users,
		logger: util.Component("users"),
	}
}

// CreateUserRequest is a new account
type CreateUserRequest struct {
	Username               string      `json:"username"`
	Password               string      `json:"password"`
	Name                   string      `json:"name"`
	Role                   models.Role `json:"role"`
	AllowBigCommerceSearch bool        `json:"allow_bigcommerce_search"`
}

// Create hashes the password and stores a new enabled account
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, NewValidationError("username", "is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("name", "is required")
	}

	role := req.Role
	if role == "" {
		role = models.RoleAgent
	}
	if role != models.RoleAgent && role != models.RoleAdmin {
		return nil, NewValidationError("role", "must be admin or agent")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:               username,
		Password:               string(hash),
		Name:                   strings.TrimSpace(req.Name),
		Role:                   role,
		IsEnabled:              true,
		AllowBigCommerceSearch: req.AllowBigCommerceSearch,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, NewConflictError("user", fmt.Sprintf("username %q is taken", username))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// ListAgents returns every agent account
func (s *UserService) ListAgents(ctx context.Context) ([]models.User, error) {
	return s.listByRole(ctx, models.RoleAgent)
}

// ListAdmins returns every admin account
func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.listByRole(ctx, models.RoleAdmin)
}

func (s *UserService) listByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	users, err := s.users.ListUsersByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s users: %w", role, err)
	}
	return users, nil
}

// SetEnabled enables or disables an account. Admins cannot disable themselves.
func (s *UserService) SetEnabled(ctx context.Context, actor *models.User, userID int64, enabled bool) error {
	if actor.ID == userID && !enabled {
		return NewConflictError("user", "you cannot disable your own account")
	}
	err := s.users.UpdateUserStatus(ctx, userID, enabled)
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError("user", userID)
	}
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	s.logger.Info("User status updated", zap.Int64("user_id", userID), zap.Bool("enabled", enabled))
	return nil
}

// SetSearchPermission grants or revokes BigCommerce product search
func (s *UserService) SetSearchPermission(ctx context.Context, userID int64, allow bool) error {
	err := s.users.UpdateUserSearchPermission(ctx, userID, allow)
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError("user", userID)
	}
	if err != nil {
		return fmt.Errorf("failed to update search permission: %w", err)
	}

	s.logger.Info("Search permission updated", zap.Int64("user_id", userID), zap.Bool("allow", allow))
	return nil
}

// Delete removes an account that has no orders
func (s *UserService) Delete(ctx context.Context, actor *models.User, userID int64) error {
	if actor.ID == userID {
		return NewConflictError("user", "you cannot delete your own account")
	}
	err := s.users.DeleteUser(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NewNotFoundError("user", userID)
	case errors.Is(err, store.ErrReferenced):
		return NewConflictError("user", "user has orders; disable the account instead")
	case err != nil:
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted", zap.Int64("user_id", userID))
	return nil
}
