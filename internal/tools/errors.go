package tools

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// InputError indicates a malformed or out-of-range tool argument.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// NotFoundError indicates a user or project id that storage could not resolve.
type NotFoundError struct {
	Resource string // "user" or "project"
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// GuardViolation indicates a draft aimed at someone who was not returned by a
// match in the current turn or an approved ticket.
type GuardViolation struct {
	RecipientID uuid.UUID
}

func (e *GuardViolation) Error() string {
	return fmt.Sprintf("recipient %s is not among the confirmed matches for this turn; run find_matches first and approve one of its results", e.RecipientID)
}

// CapExceeded indicates a tool dispatch beyond the per-turn limit.
type CapExceeded struct {
	Limit int
}

func (e *CapExceeded) Error() string {
	return fmt.Sprintf("tool call limit reached: at most %d tool calls per turn", e.Limit)
}

// UpstreamError wraps a failure of an external dependency such as the
// embedding provider.
type UpstreamError struct {
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream failure: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsInputError reports whether err wraps an *InputError.
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsGuardViolation reports whether err wraps a *GuardViolation.
func IsGuardViolation(err error) bool {
	var target *GuardViolation
	return errors.As(err, &target)
}

// IsCapExceeded reports whether err wraps a *CapExceeded.
func IsCapExceeded(err error) bool {
	var target *CapExceeded
	return errors.As(err, &target)
}

// IsUpstream reports whether err wraps an *UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
