package driven

import "context"

// SecretStore persists credentials keyed by sink-namespaced strings
// (e.g. "jira.token"). Implementations must treat an unknown key as
// absent, not as an error.
type SecretStore interface {
	// Get retrieves a secret. Returns ok false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores a secret, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes a secret. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
