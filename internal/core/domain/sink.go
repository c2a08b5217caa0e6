package domain

import "fmt"

// SinkConfig is the user-supplied configuration for one export destination.
type SinkConfig struct {
	// Kind identifies the sink type (e.g. "csv", "jira", "notion").
	Kind string

	// Label is an optional display name. Defaults to Kind.
	Label string

	// Enabled gates whether the sink is instantiated at all.
	Enabled bool

	// Options is the sink-specific key/value bag. Keys are un-namespaced
	// ("domain", not "jira.domain"); the resolution service hydrates this
	// bag before export.
	Options map[string]string
}

// DisplayName returns the label, falling back to the kind.
func (c *SinkConfig) DisplayName() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Kind
}

// ResultCode classifies an export outcome.
type ResultCode string

const (
	// CodeMissingField: a required value never resolved.
	CodeMissingField ResultCode = "missing_field"
	// CodeInvalidField: a resolved value was rejected by a validator or
	// by the remote system.
	CodeInvalidField ResultCode = "invalid_field"
	// CodeAuthError: the remote system rejected the credentials.
	CodeAuthError ResultCode = "auth_error"
	// CodeNetworkError: transport-level failure.
	CodeNetworkError ResultCode = "network_error"
	// CodeInternal: unclassified catch-all for unexpected failures.
	CodeInternal ResultCode = "internal_error"
)

// ExportResult is the outcome of one sink export attempt.
//
// Retryable true with a non-empty Field signals that the remote system
// rejected one specific declared field; the orchestrator re-resolves just
// that field and retries. Graceful skips (unconfigured sink) are OK=true
// so an unconfigured destination is never reported as a failure.
type ExportResult struct {
	OK        bool
	Message   string
	Code      ResultCode
	Field     string
	Retryable bool
	Hint      string
	Err       error
}

// Succeeded returns a successful result with an optional message.
func Succeeded(message string) ExportResult {
	return ExportResult{OK: true, Message: message}
}

// Skipped returns a graceful-skip result naming the missing fields.
func Skipped(missing []string) ExportResult {
	return ExportResult{
		OK:      true,
		Message: fmt.Sprintf("skipped: missing %v", missing),
		Code:    CodeMissingField,
	}
}

// Failed returns a fatal result with the given code and error.
func Failed(code ResultCode, err error) ExportResult {
	res := ExportResult{OK: false, Code: code, Err: err}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}

// RetryField returns a retryable rejection tied to one declared field.
func RetryField(code ResultCode, field, message string) ExportResult {
	return ExportResult{
		OK:        false,
		Code:      code,
		Field:     field,
		Retryable: true,
		Message:   message,
	}
}

// Validation is the outcome of a sink's pre-export self check.
type Validation struct {
	OK bool
	// Missing names the required option keys still absent.
	Missing []string
}

// SinkResult pairs an ExportResult with the sink it belongs to. The
// orchestrator returns one per configured sink, in input order.
type SinkResult struct {
	Kind string
	ExportResult
}
