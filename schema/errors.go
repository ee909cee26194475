package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every type expression parse error.
	ErrSyntax = errors.New("type expression syntax error")

	// ErrUnsupportedVersion is returned for schema documents outside the
	// readable version range.
	ErrUnsupportedVersion = errors.New("unsupported schema version")

	// ErrInvalidSchema is returned for documents that parse but declare
	// inconsistent types.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnknownFormat is returned when a value file's format cannot be
	// determined.
	ErrUnknownFormat = errors.New("unknown value format")
)

// SyntaxError locates a parse error in a type expression.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

func syntaxError(offset int, msg string) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: msg}
}

// Error implements error.
func (e *SyntaxError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
	}
	return fmt.Sprintf("%s at offset %d in %q", e.Msg, e.Offset, e.Expr)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func invalidf(source, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidSchema, source, fmt.Sprintf(format, args...))
}
