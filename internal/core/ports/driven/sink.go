package driven

import (
	"context"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

// Sink exports completed sessions to one destination (a file, a ticket
// system, a document database). Sinks are constructed fresh per export
// run from their SinkConfig and discarded afterwards; any state that
// must survive a run lives in the secret or settings store.
type Sink interface {
	// Kind returns the stable sink type identifier, unique per registry.
	Kind() string

	// Options returns the mutable option bag. The orchestrator writes
	// resolved field values here before export. Keys are un-namespaced
	// (see domain.FieldSpec.OptionKey).
	Options() map[string]string

	// Requirements returns the fields this sink needs, empty if none.
	Requirements() []domain.FieldSpec

	// Validate checks whether the hydrated options are sufficient to
	// attempt an export. A passing validation does not guarantee export
	// success; a token may still turn out to be expired mid-flight.
	Validate() domain.Validation

	// Export sends the session to the destination. Must be safe to call
	// repeatedly with an equivalent session; idempotency is the sink's
	// responsibility, not the orchestrator's.
	Export(ctx context.Context, session *domain.Session) domain.ExportResult
}

// SinkFactory constructs a sink from its configuration.
type SinkFactory func(cfg domain.SinkConfig) (Sink, error)
