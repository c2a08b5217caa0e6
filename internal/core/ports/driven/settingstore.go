package driven

// SettingStore provides access to persisted application settings as a
// flat key→value map. Implementations handle persistence (e.g. TOML
// files) and type conversion.
type SettingStore interface {
	// Get retrieves a setting by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string setting.
	// Returns empty string if the key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer setting.
	// Returns 0 if the key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean setting.
	// Returns false if the key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Set stores a setting. The value is persisted immediately.
	Set(key string, value any) error

	// Keys returns all known setting keys.
	Keys() []string

	// Save persists the current settings to storage.
	Save() error

	// Load reads settings from storage.
	Load() error
}
