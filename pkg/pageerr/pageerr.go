// Package pageerr defines the error taxonomy shared by the page building packages.
package pageerr

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Code is a programmatic error code.
type Code string

const (
	// CodeInvalidInput indicates a structurally malformed statement, descriptor or attribute.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeResourceNotFound indicates that a local resource could not be resolved.
	CodeResourceNotFound Code = "RESOURCE_NOT_FOUND"
	// CodeInternal is returned for any error not produced by this package.
	CodeInternal Code = "INTERNAL"
)

var (
	// ErrInvalidInput is the sentinel behind every CodeInvalidInput error.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResourceNotFound is the sentinel behind every CodeResourceNotFound error.
	ErrResourceNotFound = errors.New("resource not found")
)

// Field is one entry of an error's message context.
type Field struct {
	Key   string
	Value any
}

// Error carries a code, a message and an ordered message context.
type Error struct {
	Code    Code
	Msg     string
	Context []Field
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	for i, f := range e.Context {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", f.Key, f.Value)
	}
	if len(e.Context) > 0 {
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the sentinel matching the error's code.
func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeInvalidInput:
		return ErrInvalidInput
	case CodeResourceNotFound:
		return ErrResourceNotFound
	}
	return nil
}

// MessageContext returns the key/value context attached to the error.
func (e *Error) MessageContext() []Field {
	return e.Context
}

// InvalidInput returns a CodeInvalidInput error with a stack trace.
// kv is a list of alternating keys and values.
func InvalidInput(msg string, kv ...any) error {
	return pkgerrors.WithStack(&Error{Code: CodeInvalidInput, Msg: msg, Context: fields(kv)})
}

// ResourceNotFound returns a CodeResourceNotFound error with a stack trace.
func ResourceNotFound(path string, kv ...any) error {
	ctx := append([]Field{{Key: "path", Value: path}}, fields(kv)...)
	return pkgerrors.WithStack(&Error{Code: CodeResourceNotFound, Msg: "resource not found", Context: ctx})
}

func fields(kv []any) []Field {
	out := make([]Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Field{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	if len(kv)%2 == 1 {
		out = append(out, Field{Key: "extra", Value: kv[len(kv)-1]})
	}
	return out
}

// CodeOf classifies err. It returns an empty code for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrResourceNotFound):
		return CodeResourceNotFound
	}

	return CodeInternal
}

// IsNotFound reports whether err is a CodeResourceNotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}
