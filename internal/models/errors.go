package models

import "fmt"

// ValidationError signals malformed or out-of-domain input to the calculator
// (wrong vector length, unusable input text). It is surfaced to the caller
// and never retried.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ComputationError wraps an unexpected fault inside a pure calculation.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed during %s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// ParseError signals that a model response could not be parsed. It is always
// recovered locally by falling back to the deterministic baseline and never
// reaches the user.
type ParseError struct {
	Strategy string
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed (%s): %s", e.Strategy, e.Message)
}

// StorageError covers lock timeouts, file corruption and serialization
// faults in the quota and history stores.
type StorageError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
