package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the API boundary can pick a status code
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindBackendUnavailable
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBackendUnavailable:
		return "backend_unavailable"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is an error tagged with a Kind. The wrapped error keeps the backend detail.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing record
func NotFound(op string, format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf(format, args...)}
}

// Conflict reports a write that collided with an existing record
func Conflict(op string, err error) error {
	return &Error{Kind: KindConflict, Op: op, Err: err}
}

// Backend wraps any fault coming from the table store or blob store
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	// Already classified further down the stack
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindBackendUnavailable, Op: op, Err: err}
}

// Validation reports input rejected before it reached storage
func Validation(op string, format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first classified error in the chain
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
