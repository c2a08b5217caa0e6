package domain

import "time"

// Settings keys used in the flat settings store.
const (
	SettingDataDir       = "core.data_dir"
	SettingDebounceMS    = "picker.debounce_ms"
	SettingSuggestTTLMin = "suggest.ttl_minutes"
)

// AppSettings is the typed view over the flat settings store.
type AppSettings struct {
	// DataDir is where the durable cache and secret store live.
	// Empty means the adapter default (~/.timeport/data).
	DataDir string

	// Debounce is the quiescence window before a picker query fires.
	Debounce time.Duration

	// SuggestTTL is the default lifetime of cached suggestion pages.
	SuggestTTL time.Duration

	// Sinks are the configured export destinations, in configuration order.
	Sinks []SinkConfig
}

// DefaultAppSettings returns the built-in defaults.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Debounce:   250 * time.Millisecond,
		SuggestTTL: 24 * time.Hour,
	}
}
