package domain

import "strings"

// Well-known runtime keys. Sinks may declare runtime-scope fields whose
// option key matches one of these; hydration then pulls the current value
// straight from the session instead of prompting.
const (
	RuntimeKeyTicket    = "ticket"
	RuntimeKeyComment   = "comment"
	RuntimeKeyBranch    = "branch"
	RuntimeKeyRepo      = "repo"
	RuntimeKeyWorkspace = "workspace"
)

// Session is an immutable-once-built record of one tracked work interval.
// It is produced by the session tracker and handed to the export pipeline.
// After hand-off only the Metadata bag and the dedicated runtime fields may
// receive values, injected during field resolution so later sinks in the
// same run can reuse them without re-prompting.
type Session struct {
	// ID is the unique identifier for the session.
	ID string `json:"id"`

	// Start and End are ISO-8601 timestamps bounding the interval.
	Start string `json:"start"`
	End   string `json:"end"`

	// DurationSeconds is the tracked duration in whole seconds.
	DurationSeconds int64 `json:"duration_seconds"`

	// Workspace is the workspace or project name.
	Workspace string `json:"workspace,omitempty"`

	// RepoPath is the absolute path of the repository worked in.
	RepoPath string `json:"repo_path,omitempty"`

	// Branch is the git branch that was checked out.
	Branch string `json:"branch,omitempty"`

	// TicketKey is a ticket reference detected from the branch name,
	// if any (e.g. "PROJ-123").
	TicketKey string `json:"ticket,omitempty"`

	// Comment is the free-text description of the work done.
	Comment string `json:"comment,omitempty"`

	// Metadata carries sink-specific runtime values that are not modelled
	// as first-class session attributes.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RuntimeValue returns the session value for a well-known runtime key,
// falling back to the metadata bag. Returns empty string if unset.
func (s *Session) RuntimeValue(key string) string {
	switch key {
	case RuntimeKeyTicket:
		return s.TicketKey
	case RuntimeKeyComment:
		return s.Comment
	case RuntimeKeyBranch:
		return s.Branch
	case RuntimeKeyRepo:
		return s.RepoPath
	case RuntimeKeyWorkspace:
		return s.Workspace
	}
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// SetRuntimeValue writes a resolved runtime value back onto the session.
// Well-known keys update the dedicated field; everything else lands in
// the metadata bag.
func (s *Session) SetRuntimeValue(key, value string) {
	switch key {
	case RuntimeKeyTicket:
		s.TicketKey = value
	case RuntimeKeyComment:
		s.Comment = value
	case RuntimeKeyBranch:
		s.Branch = value
	case RuntimeKeyRepo:
		s.RepoPath = value
	case RuntimeKeyWorkspace:
		s.Workspace = value
	default:
		if s.Metadata == nil {
			s.Metadata = make(map[string]string)
		}
		s.Metadata[key] = value
	}
}

// IsEmpty reports whether a value counts as absent. The same definition is
// applied at every layer (resolution, missing-field checks, injection) so a
// value cannot be present in one layer and absent in another.
func IsEmpty(value string) bool {
	return strings.TrimSpace(value) == ""
}
