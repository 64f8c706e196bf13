// Package oldaperror defines the error taxonomy used throughout the OLDAP
// library. Every failure surfaced by the value algebra, the metadata kernel
// and the store connection is one of the kinds below, so callers can branch
// on the class of failure without string matching.
package oldaperror

import (
	"errors"
	"fmt"
)

// Kind classifies an OLDAP error.
type Kind int

const (
	// Generic covers network failures, malformed server responses and
	// transaction protocol errors.
	Generic Kind = iota
	// Value indicates a bad lexical form, an out-of-range value or an
	// unknown enum literal.
	Value
	// Type indicates an operand type mismatch in a comparison or coercion.
	Type
	// Key indicates an unknown attribute or enum lookup.
	Key
	// Index indicates an out-of-range access on a sequence.
	Index
	// NotFound indicates the entity is not present in the store.
	NotFound
	// AlreadyExists indicates a violated uniqueness constraint on create.
	AlreadyExists
	// Immutable indicates a mutation of an attribute declared immutable.
	Immutable
	// Inconsistency indicates an invariant violation, e.g. a SHACL/OWL
	// disagreement or a version mismatch.
	Inconsistency
	// NoPermission indicates a failed admin or data permission check.
	NoPermission
	// InUse indicates a delete was refused because the entity is referenced.
	InUse
	// UpdateFailed indicates an optimistic-concurrency token mismatch or a
	// zero-effect patch.
	UpdateFailed
)

var kindNames = map[Kind]string{
	Generic:       "error",
	Value:         "value error",
	Type:          "type error",
	Key:           "key error",
	Index:         "index error",
	NotFound:      "not found",
	AlreadyExists: "already exists",
	Immutable:     "immutable",
	Inconsistency: "inconsistency",
	NoPermission:  "no permission",
	InUse:         "in use",
	UpdateFailed:  "update failed",
}

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown error"
}

// Error is the concrete error type carrying the kind, a message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of err if it is (or wraps) an *Error; otherwise
// Generic and false.
func KindOf(err error) (Kind, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return Generic, false
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Convenience predicates for the kinds callers branch on most often.

// IsValue reports a lexical or range violation.
func IsValue(err error) bool { return IsKind(err, Value) }

// IsType reports an operand type mismatch.
func IsType(err error) bool { return IsKind(err, Type) }

// IsKey reports an unknown attribute or enum lookup.
func IsKey(err error) bool { return IsKind(err, Key) }

// IsNotFound reports a missing entity.
func IsNotFound(err error) bool { return IsKind(err, NotFound) }

// IsAlreadyExists reports a uniqueness violation on create.
func IsAlreadyExists(err error) bool { return IsKind(err, AlreadyExists) }

// IsImmutable reports a mutation of an immutable attribute.
func IsImmutable(err error) bool { return IsKind(err, Immutable) }

// IsInconsistency reports an invariant violation.
func IsInconsistency(err error) bool { return IsKind(err, Inconsistency) }

// IsNoPermission reports a failed permission check.
func IsNoPermission(err error) bool { return IsKind(err, NoPermission) }

// IsInUse reports a refused delete of a referenced entity.
func IsInUse(err error) bool { return IsKind(err, InUse) }

// IsUpdateFailed reports an optimistic-concurrency failure.
func IsUpdateFailed(err error) bool { return IsKind(err, UpdateFailed) }
