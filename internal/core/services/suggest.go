package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driving"
	"github.com/custodia-labs/timeport-cli/internal/logger"
)

// DefaultSuggestTTL is the page lifetime used when a field declares none.
const DefaultSuggestTTL = 24 * time.Hour

// Ensure SuggestionService implements the interface.
var _ driving.SuggestionProvider = (*SuggestionService)(nil)

// SuggestionService memoizes paginated remote searches in the layered
// cache. Pages are keyed by exact query plus cursor: typing one more
// character is a deliberate cache miss (no prefix sharing), trading
// memory for simplicity.
type SuggestionService struct {
	cache      driven.Cache
	defaultTTL time.Duration
}

// NewSuggestionService creates a suggestion service over the given cache.
// A non-positive defaultTTL falls back to DefaultSuggestTTL.
func NewSuggestionService(cache driven.Cache, defaultTTL time.Duration) *SuggestionService {
	if defaultTTL <= 0 {
		defaultTTL = DefaultSuggestTTL
	}
	return &SuggestionService{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Cached wraps fetch with read-through caching under the given namespace.
// A zero ttl uses the service default. Loader errors are returned as-is
// and nothing is cached for the failing page.
func (s *SuggestionService) Cached(namespace string, ttl time.Duration, fetch domain.PageFunc) domain.PageFunc {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return func(ctx context.Context, query, cursor string) (*domain.SuggestionPage, error) {
		key := pageKey(query, cursor)

		if s.cache != nil {
			if raw, ok, err := s.cache.Get(ctx, namespace, key); err == nil && ok {
				var page domain.SuggestionPage
				if err := json.Unmarshal(raw, &page); err == nil {
					logger.Debug("suggest cache hit %s %s", namespace, key)
					return &page, nil
				}
				// Corrupt entry; drop it and refetch.
				_ = s.cache.Invalidate(ctx, namespace, key)
			}
		}

		page, err := fetch(ctx, query, cursor)
		if err != nil {
			return nil, err
		}

		if s.cache != nil && page != nil {
			if raw, err := json.Marshal(page); err == nil {
				if err := s.cache.Set(ctx, namespace, key, raw, ttl); err != nil {
					logger.Warn("caching suggestion page failed: %v", err)
				}
			}
		}
		return page, nil
	}
}

// Invalidate drops every cached page for a namespace, used when the
// backing data set is known to have changed.
func (s *SuggestionService) Invalidate(ctx context.Context, namespace string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateNamespace(ctx, namespace)
}

// pageKey builds the cache key for one page. Queries are taken verbatim;
// the separator keeps "ab"+"c" distinct from "a"+"bc".
func pageKey(query, cursor string) string {
	return fmt.Sprintf("q=%s|c=%s", query, cursor)
}
