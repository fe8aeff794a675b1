package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/models"
	"vansales-service/internal/store"
	"vansales-service/internal/util"
)

// SettingsDefaults are the environment fallbacks used when a setting is absent
type SettingsDefaults struct {
	BigCommerce bigcommerce.Credentials
	WebhookURL  string
}

// SettingsService manages runtime settings and resolves gateway credentials
type SettingsService struct {
	settings   SettingsRepository
	defaults   SettingsDefaults
	newGateway GatewayFactory
	logger     *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settings SettingsRepository, defaults SettingsDefaults, newGateway GatewayFactory) *SettingsService {
	return &SettingsService{
		settings:   settings,
		defaults:   defaults,
		newGateway: newGateway,
		logger:     util.Component("settings"),
	}
}

// Get returns the setting stored under key
func (s *SettingsService) Get(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.settings.GetSetting(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewNotFoundError("setting", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load setting %q: %w", key, err)
	}
	return setting, nil
}

// Set validates and stores a setting value
func (s *SettingsService) Set(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error) {
	ctx, span := util.StartSpan(ctx, "SettingsService.Set")
	defer span.End()

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, NewValidationError("key", "is required")
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, NewValidationError("value", "must be valid JSON")
	}

	switch key {
	case models.SettingBigCommerceConfig:
		var cfg models.BigCommerceConfig
		if err := json.Unmarshal(value, &cfg); err != nil {
			return nil, NewValidationError("value", "must be an object with storeHash and token")
		}
		if !(bigcommerce.Credentials{StoreHash: cfg.StoreHash, Token: cfg.Token}).Valid() {
			return nil, NewValidationError("value", "storeHash and token are required")
		}
	case models.SettingGoogleSheetsWebhook:
		webhook, ok := decodeWebhookURL(value)
		if !ok {
			return nil, NewValidationError("value", "must be a URL string")
		}
		if webhook != "" {
			if u, err := url.Parse(webhook); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, NewValidationError("value", "must be an http or https URL")
			}
		}
	}

	setting, err := s.settings.UpsertSetting(ctx, key, value)
	if err != nil {
		return nil, fmt.Errorf("failed to save setting %q: %w", key, err)
	}

	s.logger.Info("Setting updated", zap.String("key", key))
	return setting, nil
}

// Credentials resolves BigCommerce credentials from settings, falling back to the environment
func (s *SettingsService) Credentials(ctx context.Context) (bigcommerce.Credentials, error) {
	setting, err := s.settings.GetSetting(ctx, models.SettingBigCommerceConfig)
	switch {
	case err == nil:
		var cfg models.BigCommerceConfig
		if jsonErr := json.Unmarshal(setting.Value, &cfg); jsonErr != nil {
			s.logger.Warn("Stored bigcommerce_config is not an object", zap.Error(jsonErr))
			break
		}
		creds := bigcommerce.Credentials{StoreHash: cfg.StoreHash, Token: cfg.Token}
		if creds.Valid() {
			return creds, nil
		}
	case !errors.Is(err, store.ErrNotFound):
		return bigcommerce.Credentials{}, fmt.Errorf("failed to load bigcommerce settings: %w", err)
	}

	if s.defaults.BigCommerce.Valid() {
		return s.defaults.BigCommerce, nil
	}
	return bigcommerce.Credentials{}, ErrGatewayNotConfigured
}

// Gateway builds a BigCommerce client for the resolved credentials
func (s *SettingsService) Gateway(ctx context.Context) (Gateway, error) {
	creds, err := s.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	gw, err := s.newGateway(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigcommerce client: %w", err)
	}
	return gw, nil
}

// WebhookURL returns the configured spreadsheet webhook, or "" when there is none
func (s *SettingsService) WebhookURL(ctx context.Context) string {
	setting, err := s.settings.GetSetting(ctx, models.SettingGoogleSheetsWebhook)
	if err == nil {
		if webhook, ok := decodeWebhookURL(setting.Value); ok && webhook != "" {
			return webhook
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("Failed to load webhook setting", zap.Error(err))
	}
	return strings.TrimSpace(s.defaults.WebhookURL)
}

// decodeWebhookURL accepts a JSON string or an object with a url field
func decodeWebhookURL(value json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(value, &obj); err == nil {
		return strings.TrimSpace(obj.URL), true
	}
	return "", false
}
