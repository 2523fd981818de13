package services

import (
	"fmt"
	"strings"
)

// ValidationError marks structurally invalid top-level input. It is surfaced
// immediately and the job is never started.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError marks a missing referenced post or profile. It aborts only
// the affected unit, never the whole job.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamTimeout marks a store or provider operation that exceeded its
// bound. Retryable; degrades only the current batch or row set. Op
// distinguishes "delete" from "insert" so callers can decide whether a naive
// retry risks duplicate rows.
type UpstreamTimeout struct {
	Op  string
	Err error
}

func (e *UpstreamTimeout) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *UpstreamTimeout) Unwrap() error {
	return e.Err
}

// ConflictError marks a merge group whose repoint/delete failed partway. The
// group is left in its pre-merge state for a future retry.
type ConflictError struct {
	Group string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict for group %s: %v", e.Group, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// PartialFailure reports a job where some units succeeded and some did not.
// It is not fatal; the job still terminates as completed and consumers
// inspect the embedded reasons.
type PartialFailure struct {
	Reasons []string
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%d items failed: %s", len(e.Reasons), strings.Join(e.Reasons, "; "))
}
