package memory

import (
	"sync"

	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Ensure SettingStore implements the interface.
var _ driven.SettingStore = (*SettingStore)(nil)

// SettingStore is an in-memory implementation of driven.SettingStore for
// testing.
type SettingStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSettingStore creates a new in-memory setting store.
func NewSettingStore() *SettingStore {
	return &SettingStore{
		values: make(map[string]any),
	}
}

// Get retrieves a setting by key.
func (s *SettingStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string setting.
func (s *SettingStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

// GetInt retrieves an integer setting.
func (s *SettingStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean setting.
func (s *SettingStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

// Set stores a setting.
func (s *SettingStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Keys returns all known setting keys.
func (s *SettingStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Save is a no-op for the in-memory store.
func (s *SettingStore) Save() error {
	return nil
}

// Load is a no-op for the in-memory store.
func (s *SettingStore) Load() error {
	return nil
}
