package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/timeport-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc := NewSettingsService(memory.NewSettingStore())

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Empty(t, settings.DataDir)
	assert.Equal(t, 250*time.Millisecond, settings.Debounce)
	assert.Equal(t, 24*time.Hour, settings.SuggestTTL)
	assert.Empty(t, settings.Sinks)
}

func TestSettingsService_Get_Overrides(t *testing.T) {
	store := memory.NewSettingStore()
	require.NoError(t, store.Set(domain.SettingDataDir, "/var/lib/timeport"))
	require.NoError(t, store.Set(domain.SettingDebounceMS, 100))
	require.NoError(t, store.Set(domain.SettingSuggestTTLMin, 30))

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/timeport", settings.DataDir)
	assert.Equal(t, 100*time.Millisecond, settings.Debounce)
	assert.Equal(t, 30*time.Minute, settings.SuggestTTL)
}

func TestSettingsService_SinkConfigs(t *testing.T) {
	store := memory.NewSettingStore()
	require.NoError(t, store.Set("sink.jira.enabled", true))
	require.NoError(t, store.Set("sink.jira.label", "Work Jira"))
	require.NoError(t, store.Set("sink.jira.option.domain", "acme.atlassian.net"))
	require.NoError(t, store.Set("sink.jira.option.email", "dev@acme.test"))
	require.NoError(t, store.Set("sink.csv.enabled", false))
	require.NoError(t, store.Set("sink.csv.option.path", "/tmp/log.csv"))
	require.NoError(t, store.Set("unrelated.key", "ignored"))

	configs := NewSettingsService(store).SinkConfigs()

	require.Len(t, configs, 2)

	// Sorted by kind for a stable export order.
	csv := configs[0]
	assert.Equal(t, "csv", csv.Kind)
	assert.False(t, csv.Enabled)
	assert.Equal(t, "/tmp/log.csv", csv.Options["path"])

	jira := configs[1]
	assert.Equal(t, "jira", jira.Kind)
	assert.True(t, jira.Enabled)
	assert.Equal(t, "Work Jira", jira.Label)
	assert.Equal(t, "acme.atlassian.net", jira.Options["domain"])
	assert.Equal(t, "dev@acme.test", jira.Options["email"])
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewSettingStore()
	svc := NewSettingsService(store)

	require.NoError(t, svc.Set("sink.csv.enabled", true))
	assert.True(t, store.GetBool("sink.csv.enabled"))

	assert.ErrorIs(t, svc.Set("", "x"), domain.ErrInvalidInput)
}
