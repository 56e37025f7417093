package service

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound is returned for an unknown run handle.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunNotRetryable is returned when retrying a run that has not failed.
	ErrRunNotRetryable = errors.New("run is not in a failed state")
)

// ValidationError rejects a submission at the boundary. It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// EnrichmentError means the model produced no usable summary.
type EnrichmentError struct {
	Reason string
	Err    error
}

func (e *EnrichmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("enrichment failed: %s: %v", e.Reason, e.Err)
	}
	return "enrichment failed: " + e.Reason
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// PersistenceError means the record could not be stored. Retryable is set
// when running the pipeline again may succeed.
type PersistenceError struct {
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InvalidInputError rejects a blank chat question.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}
