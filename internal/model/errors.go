package model

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a missing entity (week, recipe, job, session).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError constructs NotFoundError.
func NewNotFoundError(entity, id string) NotFoundError {
	return NotFoundError{Entity: entity, ID: id}
}

// IsNotFoundError checks if an error is a NotFoundError (including wrapped errors).
func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// ValidationError carries every violated rule, never just the first.
type ValidationError struct {
	Entity string
	Rules  []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(e.Rules, ", "))
}

// NewValidationError constructs ValidationError from accumulated rule codes.
func NewValidationError(entity string, rules ...string) ValidationError {
	return ValidationError{Entity: entity, Rules: rules}
}

// IsValidationError checks if error is ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ConflictError represents an advisory lock or duplicate resource: a rescan
// already in flight, or a recipe title colliding with the drive index.
type ConflictError struct {
	Code    string
	Message string
	Details any
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict %s: %s", e.Code, e.Message)
}

// NewConflictError constructs ConflictError.
func NewConflictError(code, message string, details any) ConflictError {
	return ConflictError{Code: code, Message: message, Details: details}
}

// IsConflictError checks if error is ConflictError.
func IsConflictError(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// RateLimitedError rejects a rescan requested before the minimum interval
// elapsed. RetryAfterSec is the computed wait.
type RateLimitedError struct {
	RetryAfterSec int
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.RetryAfterSec)
}

// IsRateLimitedError checks if error is RateLimitedError.
func IsRateLimitedError(err error) bool {
	var re RateLimitedError
	return errors.As(err, &re)
}

// SubprocessError records an external process that failed to spawn, exited
// non-zero, or was killed by the runtime watchdog.
type SubprocessError struct {
	JobID   string
	Message string
}

func (e SubprocessError) Error() string {
	return fmt.Sprintf("subprocess failure (job %s): %s", e.JobID, e.Message)
}

// IsSubprocessError checks if error is SubprocessError.
func IsSubprocessError(err error) bool {
	var se SubprocessError
	return errors.As(err, &se)
}
