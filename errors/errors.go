package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the binding lifecycle the error occurred
type Phase string

const (
	PhaseLoad   Phase = "load"   // load-time initialization
	PhaseAccess Phase = "access" // opaque reference lookups
	PhaseReload Phase = "reload" // hot reload of the library
	PhaseClose  Phase = "close"  // foreign shutdown
	PhaseEngine Phase = "engine" // foreign library compile/instantiate
	PhaseConfig Phase = "config" // configuration parsing
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation           Kind = "allocation"
	KindVersionStringInvalid Kind = "version_string_invalid"
	KindInvalidInput         Kind = "invalid_input"
	KindInvalidData          Kind = "invalid_data"
	KindNotFound             Kind = "not_found"
	KindShutdown             Kind = "shutdown"
)

// Error is the structured error type used throughout the binding
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is checks that only care about the category.
var (
	ErrAllocation           = &Error{Kind: KindAllocation}
	ErrVersionStringInvalid = &Error{Kind: KindVersionStringInvalid}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrShutdown             = &Error{Kind: KindShutdown}
)

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("cannot allocate %s", what),
	}
}

// VersionStringInvalid creates an error for a load argument that is not
// bounded text
func VersionStringInvalid(value any, reason string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindVersionStringInvalid,
		Detail: reason,
		Value:  value,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string, name any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %v not found", what, name),
		Value:  name,
	}
}

// Shutdown wraps a failure reported by a foreign shutdown entry point
func Shutdown(export string, cause error) *Error {
	return &Error{
		Phase:  PhaseClose,
		Kind:   KindShutdown,
		Detail: fmt.Sprintf("call %s", export),
		Cause:  cause,
	}
}

// Load creates a library loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a configuration parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
