package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vansales-service/internal/models"
)

// GetSetting retrieves a setting by key
func (s *Store) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := s.db.GetContext(ctx, &setting,
		"SELECT id, key, value, updated_at FROM settings WHERE key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// UpsertSetting creates or replaces the value of a setting
func (s *Store) UpsertSetting(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error) {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING id, key, value, updated_at`

	var setting models.Setting
	if err := s.db.GetContext(ctx, &setting, query, key, string(value)); err != nil {
		return nil, err
	}
	return &setting, nil
}
