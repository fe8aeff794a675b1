package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vansales-service/internal/models"
)

const userColumns = "id, username, password, name, role, is_enabled, allow_bigcommerce_search, created_at"

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user; Password must already be hashed
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password, name, role, is_enabled, allow_bigcommerce_search)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		user.Username, user.Password, user.Name, user.Role, user.IsEnabled, user.AllowBigCommerceSearch,
	).Scan(&user.ID, &user.CreatedAt)
	return translateError(err)
}

// ListUsersByRole retrieves all users with the given role
func (s *Store) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users WHERE role = $1 ORDER BY name, id", role)
	return users, err
}

// UpdateUserStatus enables or disables a user
func (s *Store) UpdateUserStatus(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET is_enabled = $1 WHERE id = $2", enabled, id)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Errorf("user %d: %w", id, ErrNotFound))
}

// UpdateUserSearchPermission toggles remote catalog search for a user
func (s *Store) UpdateUserSearchPermission(ctx context.Context, id int64, allow bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET allow_bigcommerce_search = $1 WHERE id = $2", allow, id)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Errorf("user %d: %w", id, ErrNotFound))
}

// DeleteUser removes a user that owns no orders
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res, fmt.Errorf("user %d: %w", id, ErrNotFound))
}
