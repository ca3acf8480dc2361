package loader

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrIO     = errors.New("io error")
	ErrParse  = errors.New("parse error")
	ErrFormat = errors.New("format error")
	ErrSchema = errors.New("schema error")
	ErrInsert = errors.New("insert error")
)

// Error describes a failed loader operation. Kind is one of the Err* values;
// Err is the underlying cause (OS, csv, driver or *FormatError).
type Error struct {
	Kind error
	Op   string
	Path string
	Line int
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause, so errors.Is(err, ErrSchema)
// and errors.As(err, &driverErr) both work.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reject is one date/time value that did not match its source layout.
type Reject struct {
	Line  int
	Field string
	Value string
	Err   error
}

// FormatError lists every rejected value of a failed normalization.
type FormatError struct {
	Rejects []Reject
}

func (e *FormatError) Error() string {
	if len(e.Rejects) == 0 {
		return "no rejected values"
	}
	first := e.Rejects[0]
	msg := fmt.Sprintf("line %d: %s %q does not match the source layout", first.Line, first.Field, first.Value)
	if n := len(e.Rejects) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}
