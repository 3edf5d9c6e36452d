package documents

import "errors"

var (
	// ErrInvalidInput marks a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when no record exists for a document id.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyFinal is returned when a transition targets a document that
	// is already processed or failed.
	ErrAlreadyFinal = errors.New("document already in a final state")
)
