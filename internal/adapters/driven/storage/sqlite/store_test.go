package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Migrations(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-apply migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestSecretStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	secrets := newTestStore(t).SecretStore()

	_, ok, err := secrets.Get(ctx, "jira.token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, secrets.Set(ctx, "jira.token", "abc"))

	value, ok, err := secrets.Get(ctx, "jira.token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", value)
}

func TestSecretStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	secrets := newTestStore(t).SecretStore()

	require.NoError(t, secrets.Set(ctx, "k", "old"))
	require.NoError(t, secrets.Set(ctx, "k", "new"))

	value, ok, err := secrets.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", value)
}

func TestSecretStore_Delete(t *testing.T) {
	ctx := context.Background()
	secrets := newTestStore(t).SecretStore()

	require.NoError(t, secrets.Set(ctx, "k", "v"))
	require.NoError(t, secrets.Delete(ctx, "k"))

	_, ok, err := secrets.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, secrets.Delete(ctx, "k"))
}

func TestCacheStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestStore(t).Cache()

	require.NoError(t, c.Set(ctx, "ns", "k", []byte("v"), time.Minute))

	value, ok, err := c.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}

func TestCacheStore_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newTestStore(t).Cache()

	require.NoError(t, c.Set(ctx, "ns", "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, ok, err := c.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheStore_NonPositiveTTLStoresNothing(t *testing.T) {
	ctx := context.Background()
	c := newTestStore(t).Cache()

	require.NoError(t, c.Set(ctx, "ns", "k", []byte("v"), 0))

	_, ok, err := c.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheStore_InvalidateNamespace(t *testing.T) {
	ctx := context.Background()
	c := newTestStore(t).Cache()

	require.NoError(t, c.Set(ctx, "jira.ticket", "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "jira.ticket", "b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "github.issue", "a", []byte("3"), time.Minute))

	require.NoError(t, c.InvalidateNamespace(ctx, "jira.ticket"))

	_, ok, _ := c.Get(ctx, "jira.ticket", "a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "github.issue", "a")
	assert.True(t, ok)
}

func TestCacheStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Cache().Set(ctx, "ns", "k", []byte("v"), time.Hour))
	require.NoError(t, store.SecretStore().Set(ctx, "token", "abc"))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	value, ok, err := store.Cache().Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	secret, ok, err := store.SecretStore().Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", secret)
}
