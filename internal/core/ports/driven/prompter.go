package driven

import (
	"context"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

// InputRequest describes a single-line prompt.
type InputRequest struct {
	// Label is the human-readable field label.
	Label string
	// Placeholder is optional hint text shown while empty.
	Placeholder string
	// Kind steers input handling (numeric keypad, masking, etc.).
	Kind domain.FieldKind
}

// PickRequest describes a searchable, paginated picker.
type PickRequest struct {
	// Label is the human-readable field label.
	Label string
	// Fetch supplies result pages. The picker owns debouncing,
	// cancellation of superseded queries, and load-more paging; none of
	// that state leaks to the caller.
	Fetch domain.PageFunc
	// AllowFreeText permits submitting the typed query itself when no
	// suggestion matches.
	AllowFreeText bool
	// Notice is an optional message shown above the results, used to
	// explain why the picker reopened after a rejected value.
	Notice string
}

// Prompter is the interactive surface used to ask the user for a field
// value. Implementations must be safe to call sequentially; the core
// never shows two prompts at once.
//
// All three operations return ok false when the user cancels. Cancel is
// a normal outcome, not an error.
type Prompter interface {
	// Input asks for a typed value.
	Input(ctx context.Context, req InputRequest) (value string, ok bool, err error)

	// Secret asks for a masked value.
	Secret(ctx context.Context, req InputRequest) (value string, ok bool, err error)

	// Pick asks the user to choose from a remote, searchable set.
	Pick(ctx context.Context, req PickRequest) (value string, ok bool, err error)
}
