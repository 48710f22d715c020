// Package errors provides structured error types for the binding.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoad, errors.KindVersionStringInvalid).
//		Value(arg).
//		Detail("length %d exceeds %d", n, max).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseAccess, "reference", h)
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match any error of their Kind regardless of Phase.
package errors
