package domain

import (
	"context"
	"strings"
	"time"
)

// FieldKind defines the value type of a sink field.
type FieldKind string

const (
	// FieldString is a plain text value.
	FieldString FieldKind = "string"
	// FieldNumber is a numeric value, carried as a string and validated
	// at prompt time.
	FieldNumber FieldKind = "number"
	// FieldBool is a boolean value ("true"/"false").
	FieldBool FieldKind = "boolean"
	// FieldSecret is a credential. Masked in prompts, persisted only to
	// the secret store, never to settings.
	FieldSecret FieldKind = "secret"
)

// FieldScope defines how long a resolved value stays relevant.
type FieldScope string

const (
	// ScopeSetup fields persist across sessions (credentials, endpoints).
	ScopeSetup FieldScope = "setup"
	// ScopeRuntime fields may vary per session (ticket key, comment).
	ScopeRuntime FieldScope = "runtime"
)

// PromptMode selects the interactive surface used when a field must be
// asked from the user.
type PromptMode string

const (
	// PromptInput is a single-line typed input.
	PromptInput PromptMode = "input"
	// PromptSelect is a searchable paginated picker backed by a remote
	// page fetch.
	PromptSelect PromptMode = "select"
)

// Suggestion is one pickable item returned by a remote search.
type Suggestion struct {
	// Value is the machine value injected when the item is chosen.
	Value string `json:"value"`
	// Label is the human-readable display text.
	Label string `json:"label"`
	// Detail is optional secondary display text.
	Detail string `json:"detail,omitempty"`
}

// SuggestionPage is one page of remote search results.
type SuggestionPage struct {
	Items []Suggestion `json:"items"`
	// NextCursor is the opaque cursor for the following page.
	// Empty means this is the last page.
	NextCursor string `json:"next_cursor,omitempty"`
}

// PageFunc fetches one page of suggestions for a query. The cursor is
// opaque to the caller; empty requests the first page.
type PageFunc func(ctx context.Context, query, cursor string) (*SuggestionPage, error)

// ValidateFunc checks a candidate value. A nil return accepts the value;
// otherwise the error message is surfaced to the user and the prompt
// retried.
type ValidateFunc func(value string) error

// FieldSpec declares one value a sink needs before it can export:
// what the value is, how to ask for it, how to check it, and where to
// persist it.
//
// Keys are sink-namespaced ("jira.domain"); a sink's own options bag is
// keyed by OptionKey(), the portion after the namespace ("domain").
type FieldSpec struct {
	// Key is the sink-namespaced logical key, e.g. "jira.token".
	Key string

	// Label is the human-readable prompt label.
	Label string

	// Kind is the value type. Defaults to FieldString when empty.
	Kind FieldKind

	// Scope is setup (persists across sessions) or runtime (per session).
	Scope FieldScope

	// Required indicates the sink cannot export without this value.
	Required bool

	// Validate optionally checks candidate values. Applied during
	// prompting; a failing value is re-prompted up to the attempt bound.
	Validate ValidateFunc

	// Mode selects the prompt surface. Defaults to PromptInput.
	Mode PromptMode

	// Fetch supplies remote search pages for PromptSelect fields.
	Fetch PageFunc

	// SecretKey is the secret-store key for secret-kind fields.
	// Empty derives the key from Key.
	SecretKey string

	// SettingKey is the settings-store key for persisted non-secret
	// fields. Empty with Ephemeral false means the value is not written
	// to settings.
	SettingKey string

	// Ephemeral marks the value memory-only: never persisted anywhere.
	Ephemeral bool

	// CacheTTL bounds how long remote suggestion pages for this field
	// are cached. Zero uses the suggestion service default.
	CacheTTL time.Duration
}

// OptionKey returns the key used in the sink's options bag: the spec key
// with its sink namespace stripped ("jira.domain" -> "domain").
func (f *FieldSpec) OptionKey() string {
	if i := strings.Index(f.Key, "."); i >= 0 {
		return f.Key[i+1:]
	}
	return f.Key
}

// SecretStoreKey returns the secret-store key for this field, deriving it
// from Key when SecretKey is unset.
func (f *FieldSpec) SecretStoreKey() string {
	if f.SecretKey != "" {
		return f.SecretKey
	}
	return f.Key
}

// IsSecret reports whether the field holds a credential.
func (f *FieldSpec) IsSecret() bool {
	return f.Kind == FieldSecret
}

// Persists reports whether a resolved value should be written to a store.
func (f *FieldSpec) Persists() bool {
	if f.Ephemeral {
		return false
	}
	return f.IsSecret() || f.SettingKey != ""
}

// Check verifies the spec's own invariants: secret fields must map to a
// secret-store key (always satisfiable via derivation), and persisted
// setup fields must name a settings key or be explicitly ephemeral.
func (f *FieldSpec) Check() error {
	if f.Key == "" {
		return ErrInvalidInput
	}
	if f.IsSecret() && f.SecretStoreKey() == "" {
		return ErrSecretNotPersistable
	}
	if f.Scope == ScopeSetup && !f.IsSecret() && !f.Ephemeral && f.SettingKey == "" {
		return ErrInvalidInput
	}
	return nil
}
