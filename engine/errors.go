package engine

import (
	"errors"
	"fmt"

	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/pool"
)

// ErrMalformed is returned for invalid descriptors. It is never aggregated by
// unions or constrained type variables.
var ErrMalformed = descriptor.ErrMalformed

// ErrUnresolved is wrapped by UnresolvedError.
var ErrUnresolved = errors.New("unresolved forward reference")

// MismatchError reports that a value does not conform to a descriptor.
//
// Path segments are appended innermost first while the failure unwinds, so
// the rendered message reads "item 2 of value of key 'a' is not ...".
type MismatchError struct {
	message string
	path    []string
}

// Mismatch creates a MismatchError with a local message and no path.
func Mismatch(format string, args ...any) *MismatchError {
	if len(args) == 0 {
		return &MismatchError{message: format}
	}
	return &MismatchError{message: fmt.Sprintf(format, args...)}
}

// AppendPath adds the next enclosing location and returns e.
func (e *MismatchError) AppendPath(segment string) *MismatchError {
	e.path = append(e.path, segment)
	return e
}

// Path returns the accumulated segments, innermost first.
func (e *MismatchError) Path() []string {
	return e.path
}

// Message returns the local message without the path.
func (e *MismatchError) Message() string {
	return e.message
}

// Location returns the rendered path without the message.
func (e *MismatchError) Location() string {
	return pool.JoinSegments(e.path)
}

func (e *MismatchError) Error() string {
	return pool.Render(e.path, e.message)
}

// UnresolvedError reports a forward reference that could not be resolved
// under the error policy.
type UnresolvedError struct {
	Name  string
	Cause error
}

func (e *UnresolvedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %v", ErrUnresolved, e.Name, e.Cause)
	}
	return fmt.Sprintf("%s %q", ErrUnresolved, e.Name)
}

func (e *UnresolvedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUnresolved, e.Cause}
	}
	return []error{ErrUnresolved}
}

// IsMismatch reports whether err is a structural mismatch.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}

// withPath appends segment to err when it is a mismatch and returns err.
func withPath(err error, segment string) error {
	var me *MismatchError
	if errors.As(err, &me) {
		me.AppendPath(segment)
	}
	return err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}
