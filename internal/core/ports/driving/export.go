package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

// Exporter drives a completed session through every configured sink and
// reports one result per sink, in input order. A sink failure never
// aborts its siblings and the run as a whole cannot fail.
type Exporter interface {
	Export(ctx context.Context, session *domain.Session, configs []domain.SinkConfig) []domain.SinkResult
}

// ResolveRequest carries one field resolution.
type ResolveRequest struct {
	// Spec is the field being resolved.
	Spec domain.FieldSpec
	// Current is a value the caller already holds (from options or the
	// session). Empty means none.
	Current string
	// Force treats any current or persisted value as invalid and goes
	// straight to prompting. Used after a destination rejected the field.
	Force bool
}

// FieldResolver resolves one declared field to a concrete value.
// An empty returned value with a nil error means the field resolved to
// absent (optional field, or the user cancelled).
type FieldResolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (string, error)
}

// SuggestionProvider wraps a raw page fetch with the layered suggestion
// cache. The returned PageFunc memoizes pages by exact query+cursor.
type SuggestionProvider interface {
	Cached(namespace string, ttl time.Duration, fetch domain.PageFunc) domain.PageFunc
}

// SettingsService exposes typed application settings over the flat
// settings store.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Set(key string, value any) error
	SinkConfigs() []domain.SinkConfig
}
