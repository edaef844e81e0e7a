// Package modelerrors defines the error taxonomy used across the ARM/ADM/CBM
// core: policy kinds rather than exception hierarchies, so callers can
// branch with errors.Is/errors.As instead of string matching.
package modelerrors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a ModelError into one of the taxonomy entries from the
// design's error handling section.
type Kind string

const (
	InvalidKind             Kind = "INVALID_KIND"
	Malformed                Kind = "MALFORMED"
	MalformedDelegation     Kind = "MALFORMED_DELEGATION"
	DuplicatePoolDefinition Kind = "DUPLICATE_POOL_DEFINITION"
	OrphanMention           Kind = "ORPHAN_MENTION"
	MalformedPool           Kind = "MALFORMED_POOL"
	EmptyARM                Kind = "EMPTY_ARM"
	NoDelegations           Kind = "NO_DELEGATIONS"
	NotFound                Kind = "NOT_FOUND"
	StoreError              Kind = "STORE_ERROR"
	ConflictingMerge        Kind = "CONFLICTING_MERGE"
)

// ModelError is the concrete error type raised by every package in this
// module. Message carries the human-readable detail; Err, when present, is
// the underlying cause (e.g. a StoreError wrapping an adapter failure).
type ModelError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is and errors.As see through to the wrapped cause.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ModelError of the same Kind, so callers
// can write errors.Is(err, modelerrors.New(modelerrors.NotFound, "")).
func (e *ModelError) Is(target error) bool {
	t, ok := target.(*ModelError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a ModelError with no wrapped cause.
func New(kind Kind, format string, args ...interface{}) error {
	return &ModelError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to an existing error, preserving it as the
// cause for Unwrap. A nil err yields a nil error, matching the teacher's
// Wrap(err, message) convention.
func Wrap(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ModelError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WrapStore wraps an error returned by a graph adapter call as a StoreError,
// attaching a stack trace via github.com/pkg/errors so adapter failures are
// easier to locate than a bare message would allow.
func WrapStore(err error, op string) error {
	if err == nil {
		return nil
	}
	return &ModelError{Kind: StoreError, Message: op, Err: pkgerrors.WithStack(err)}
}

// Of reports whether err, or any error it wraps, is a ModelError of the
// given kind, so a NotFound wrapped by WrapStore still reports NotFound.
func Of(err error, kind Kind) bool {
	return errors.Is(err, &ModelError{Kind: kind})
}
