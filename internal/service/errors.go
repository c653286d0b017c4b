package service

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError represents bad client input. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError represents a reference to an unknown record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// DurationExceededError is the business-rule rejection for videos longer
// than the configured ceiling. Never retried.
type DurationExceededError struct {
	Duration time.Duration
	Limit    time.Duration
}

func (e *DurationExceededError) Error() string {
	return fmt.Sprintf("video duration %s exceeds the %s limit", e.Duration, e.Limit)
}

// ExternalServiceError wraps a failure of an external collaborator
// (metadata provider, enrichment worker, embedding service, vector
// index). Degraded or retried, never surfaced where a safe default exists.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ExternalServiceError struct {
	Service string
	Cause   error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Cause)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}

// StorageError wraps a persistence-layer failure. Fatal for the operation.
type StorageError struct {
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %v", e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
