package ir

import (
	"errors"
	"fmt"
)

// Error is the structured error of the relational runtime.
//
// Construction-time invariant violations (range, confidence, tolerance,
// buffer) and lookups of absent names are reported through Error so callers
// can branch on Code with errors.As.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Anchor names the anchor involved, if any.
	Anchor string

	// Relation names the relation involved, if any.
	Relation string
}

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeAnchorNotFound indicates a referenced anchor is absent.
	ErrCodeAnchorNotFound ErrorCode = "ANCHOR_NOT_FOUND"

	// ErrCodeInvalidRange indicates range_start > range_end at construction.
	ErrCodeInvalidRange ErrorCode = "INVALID_ANCHOR_RANGE"

	// ErrCodeInvalidConfidence indicates confidence outside [0,1].
	ErrCodeInvalidConfidence ErrorCode = "INVALID_CONFIDENCE"

	// ErrCodeInvalidTolerance indicates a negative tolerance.
	ErrCodeInvalidTolerance ErrorCode = "INVALID_TOLERANCE"

	// ErrCodeInvalidBuffer indicates a negative buffer zone.
	ErrCodeInvalidBuffer ErrorCode = "INVALID_BUFFER"

	// ErrCodeContext indicates an absent relation or an empty scope stack.
	ErrCodeContext ErrorCode = "CONTEXT_ERROR"

	// ErrCodeOptimization indicates optimizer misconfiguration.
	ErrCodeOptimization ErrorCode = "OPTIMIZATION_ERROR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Relation != "" && e.Anchor != "":
		return fmt.Sprintf("%s: %s (relation=%s, anchor=%s)", e.Code, e.Message, e.Relation, e.Anchor)
	case e.Anchor != "":
		return fmt.Sprintf("%s: %s (anchor=%s)", e.Code, e.Message, e.Anchor)
	case e.Relation != "":
		return fmt.Sprintf("%s: %s (relation=%s)", e.Code, e.Message, e.Relation)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsAnchorNotFound returns true if err reports a missing anchor.
func IsAnchorNotFound(err error) bool {
	return CodeOf(err) == ErrCodeAnchorNotFound
}

// IsInvalidRange returns true if err reports range_start > range_end.
func IsInvalidRange(err error) bool {
	return CodeOf(err) == ErrCodeInvalidRange
}

// IsInvalidConfidence returns true if err reports confidence outside [0,1].
func IsInvalidConfidence(err error) bool {
	return CodeOf(err) == ErrCodeInvalidConfidence
}

// IsInvalidTolerance returns true if err reports a negative tolerance or buffer.
func IsInvalidTolerance(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeInvalidTolerance || code == ErrCodeInvalidBuffer
}

// IsContextError returns true if err is a context error.
func IsContextError(err error) bool {
	return CodeOf(err) == ErrCodeContext
}

// IsOptimizationError returns true if err is an optimizer misconfiguration.
func IsOptimizationError(err error) bool {
	return CodeOf(err) == ErrCodeOptimization
}

// NewAnchorNotFound creates an Error for a missing anchor.
func NewAnchorNotFound(name string) *Error {
	return &Error{
		Code:    ErrCodeAnchorNotFound,
		Message: fmt.Sprintf("anchor %q not found in context", name),
		Anchor:  name,
	}
}

// NewInvalidRange creates an Error for an inverted anchor range.
func NewInvalidRange(name string, start, end float64) *Error {
	return &Error{
		Code:    ErrCodeInvalidRange,
		Message: fmt.Sprintf("invalid anchor range: %v > %v", start, end),
		Anchor:  name,
	}
}

// NewContextError creates an Error for a context operation failure.
func NewContextError(relation, message string) *Error {
	return &Error{
		Code:     ErrCodeContext,
		Message:  message,
		Relation: relation,
	}
}

// NewOptimizationError creates an Error for optimizer misconfiguration.
func NewOptimizationError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeOptimization,
		Message: fmt.Sprintf(format, args...),
	}
}
