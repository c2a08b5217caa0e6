package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/timeport-cli/internal/adapters/driven/cache"
	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

func countingFetch(calls *int, page *domain.SuggestionPage, err error) domain.PageFunc {
	return func(context.Context, string, string) (*domain.SuggestionPage, error) {
		*calls++
		return page, err
	}
}

func TestSuggestionService_Cached_SecondCallHitsCache(t *testing.T) {
	ctx := context.Background()
	svc := NewSuggestionService(cache.NewMemory(), time.Hour)

	calls := 0
	page := &domain.SuggestionPage{
		Items:      []domain.Suggestion{{Value: "PROJ-1", Label: "Fix login"}},
		NextCursor: "20",
	}
	fetch := svc.Cached("jira.ticket", 0, countingFetch(&calls, page, nil))

	first, err := fetch(ctx, "login", "")
	require.NoError(t, err)
	second, err := fetch(ctx, "login", "")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, "20", second.NextCursor)
}

func TestSuggestionService_Cached_ExactKeyOnly(t *testing.T) {
	ctx := context.Background()
	svc := NewSuggestionService(cache.NewMemory(), time.Hour)

	calls := 0
	fetch := svc.Cached("ns", 0, countingFetch(&calls, &domain.SuggestionPage{}, nil))

	_, err := fetch(ctx, "ab", "")
	require.NoError(t, err)
	// One more character is a different key, not a prefix hit.
	_, err = fetch(ctx, "abc", "")
	require.NoError(t, err)
	// Same query, different cursor is a different page.
	_, err = fetch(ctx, "ab", "20")
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
}

func TestSuggestionService_Cached_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	svc := NewSuggestionService(cache.NewMemory(), time.Hour)

	calls := 0
	fetch := svc.Cached("ns", 0, countingFetch(&calls, nil, errors.New("remote down")))

	_, err := fetch(ctx, "q", "")
	require.Error(t, err)
	_, err = fetch(ctx, "q", "")
	require.Error(t, err)

	assert.Equal(t, 2, calls)
}

func TestSuggestionService_Cached_ExpiredEntryRefetches(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	now := time.Now()
	mem.SetClock(func() time.Time { return now })

	svc := NewSuggestionService(mem, time.Hour)

	calls := 0
	fetch := svc.Cached("ns", time.Minute, countingFetch(&calls, &domain.SuggestionPage{}, nil))

	_, err := fetch(ctx, "q", "")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = fetch(ctx, "q", "")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestSuggestionService_Invalidate(t *testing.T) {
	ctx := context.Background()
	svc := NewSuggestionService(cache.NewMemory(), time.Hour)

	calls := 0
	fetch := svc.Cached("ns", 0, countingFetch(&calls, &domain.SuggestionPage{}, nil))

	_, err := fetch(ctx, "q", "")
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx, "ns"))

	_, err = fetch(ctx, "q", "")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSuggestionService_NilCachePassesThrough(t *testing.T) {
	ctx := context.Background()
	svc := NewSuggestionService(nil, 0)

	calls := 0
	fetch := svc.Cached("ns", 0, countingFetch(&calls, &domain.SuggestionPage{}, nil))

	_, err := fetch(ctx, "q", "")
	require.NoError(t, err)
	_, err = fetch(ctx, "q", "")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
