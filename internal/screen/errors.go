package screen

import (
	"errors"
	"fmt"
)

var (
	// ErrEnumeration means the OS-level listing call itself failed.
	ErrEnumeration = errors.New("enumeration failed")

	// ErrResourceAcquisition means a native handle could not be obtained or was invalid.
	ErrResourceAcquisition = errors.New("native resource acquisition failed")

	// ErrFieldDecode means a single enumerated entry lacks a required field.
	ErrFieldDecode = errors.New("field decode failed")

	// ErrGeometry means bounds computation or rectangle decoding failed.
	ErrGeometry = errors.New("geometry resolution failed")

	// ErrUnsupportedTarget means the requested area lies outside the addressable desktop.
	ErrUnsupportedTarget = errors.New("unsupported capture target")

	// ErrZeroSize means the capture target covers no pixels.
	ErrZeroSize = errors.New("zero-size capture target")

	// ErrCopy means the native pixel copy call failed or returned a short buffer.
	ErrCopy = errors.New("pixel copy failed")

	// ErrNotFound means no monitor or window matched the requested id or point.
	ErrNotFound = errors.New("not found")
)

// Error ties a failed operation to one of the sentinel kinds above and to its cause.
// errors.Is matches both the kind and anything in the cause chain.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// NewError builds an *Error; err may be nil when the kind says it all
func NewError(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FieldError describes one enumeration entry that could not be decoded
type FieldError struct {
	Entry string
	Field string
	Err   error
}

// NewFieldError builds a *FieldError for entry/field
func NewFieldError(entry, field string, err error) *FieldError {
	return &FieldError{Entry: entry, Field: field, Err: err}
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: field %q missing", e.Entry, e.Field)
	}
	return fmt.Sprintf("%s: field %q: %v", e.Entry, e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFieldDecode}
	}
	return []error{ErrFieldDecode, e.Err}
}
