package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors. Remote-rejection
// outcomes travel as ResultCode values, not errors, because the
// orchestrator must distinguish retryable rejections from fatal ones
// without control flow via exceptions.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSecretNotPersistable indicates a secret-kind field has no secret
	// store key and cannot derive one.
	ErrSecretNotPersistable = errors.New("secret field has no secret store key")
)
