package driven

import (
	"context"
	"time"
)

// Cache is a namespaced key→value store with per-entry TTL.
// Values are opaque byte payloads (callers typically store JSON).
//
// Expiry is evaluated at read time: a miss and an expired entry are
// indistinguishable to the caller, and an expired entry is purged on
// next inspection rather than by a background sweep.
type Cache interface {
	// Get retrieves a live entry. Returns ok false on miss or expiry.
	Get(ctx context.Context, namespace, key string) (value []byte, ok bool, err error)

	// Set stores an entry with the given lifetime. A non-positive TTL
	// stores nothing.
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error

	// Invalidate removes one entry. Removing an absent entry is not an
	// error.
	Invalidate(ctx context.Context, namespace, key string) error

	// InvalidateNamespace removes every entry in a namespace.
	InvalidateNamespace(ctx context.Context, namespace string) error
}
