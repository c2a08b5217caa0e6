package services

import (
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driving"
)

// sinkKeyPrefix namespaces sink configuration in the flat settings
// store: sink.<kind>.enabled, sink.<kind>.label, sink.<kind>.option.<key>.
const sinkKeyPrefix = "sink."

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService maps the flat settings store onto typed AppSettings.
type SettingsService struct {
	store driven.SettingStore
}

// NewSettingsService creates a settings service over the given store.
func NewSettingsService(store driven.SettingStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the current settings, falling back to defaults for unset
// or invalid values.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	if s.store == nil {
		return settings, nil
	}

	if dir := s.store.GetString(domain.SettingDataDir); dir != "" {
		settings.DataDir = dir
	}
	if ms := s.store.GetInt(domain.SettingDebounceMS); ms > 0 {
		settings.Debounce = time.Duration(ms) * time.Millisecond
	}
	if min := s.store.GetInt(domain.SettingSuggestTTLMin); min > 0 {
		settings.SuggestTTL = time.Duration(min) * time.Minute
	}
	settings.Sinks = s.SinkConfigs()

	return settings, nil
}

// Set stores one setting value.
func (s *SettingsService) Set(key string, value any) error {
	if s.store == nil {
		return domain.ErrNotFound
	}
	if key == "" {
		return domain.ErrInvalidInput
	}
	return s.store.Set(key, value)
}

// SinkConfigs assembles sink configurations from the sink.* key space,
// ordered by kind for a stable export order.
func (s *SettingsService) SinkConfigs() []domain.SinkConfig {
	if s.store == nil {
		return nil
	}

	byKind := make(map[string]*domain.SinkConfig)
	for _, key := range s.store.Keys() {
		if !strings.HasPrefix(key, sinkKeyPrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, sinkKeyPrefix)
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 {
			continue
		}
		kind, attr := parts[0], parts[1]

		cfg, ok := byKind[kind]
		if !ok {
			cfg = &domain.SinkConfig{Kind: kind, Options: make(map[string]string)}
			byKind[kind] = cfg
		}

		switch {
		case attr == "enabled":
			cfg.Enabled = s.store.GetBool(key)
		case attr == "label":
			cfg.Label = s.store.GetString(key)
		case strings.HasPrefix(attr, "option."):
			cfg.Options[strings.TrimPrefix(attr, "option.")] = s.store.GetString(key)
		}
	}

	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	configs := make([]domain.SinkConfig, 0, len(kinds))
	for _, kind := range kinds {
		configs = append(configs, *byKind[kind])
	}
	return configs
}
