// Package errors provides error handling for cfw.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints attached to configuration errors
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := parse(); err != nil {
//	    return errors.Wrap(err, "failed to parse header")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "add the header's directory to INCLUDE")
//
//	// Check errors
//	if errors.Is(err, errors.ErrFunctionNotFound) {
//	    // handle missing function
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the generation pipeline.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrFunctionNotFound indicates a requested function or aggregate member
	// was not among the discovered declarations
	ErrFunctionNotFound = New("function not found")

	// ErrUnsupportedDeclarator indicates a declarator shape the normalizer cannot classify
	ErrUnsupportedDeclarator = New("unsupported declarator")

	// ErrMalformedDeclaration indicates a declaration missing required parts
	ErrMalformedDeclaration = New("malformed declaration")

	// ErrUnmockable indicates a signature the mock generator cannot express
	ErrUnmockable = New("signature cannot be mocked")

	// ErrInvalidConfig indicates invalid generation options or aggregate groups
	ErrInvalidConfig = New("invalid configuration")

	// ErrHeaderNotFound indicates a header missing from every include directory
	ErrHeaderNotFound = New("header not found")

	// ErrTemplateVersion indicates a template override with an incompatible contract version
	ErrTemplateVersion = New("incompatible template version")
)

// IsFunctionNotFound checks if an error is or wraps ErrFunctionNotFound
func IsFunctionNotFound(err error) bool {
	return err != nil && Is(err, ErrFunctionNotFound)
}

// IsUnmockable checks if an error is or wraps ErrUnmockable
func IsUnmockable(err error) bool {
	return err != nil && Is(err, ErrUnmockable)
}

// IsInvalidConfig checks if an error is or wraps ErrInvalidConfig
func IsInvalidConfig(err error) bool {
	return err != nil && Is(err, ErrInvalidConfig)
}

// NewFunctionNotFound creates a not-found error for a function name
func NewFunctionNotFound(name string) error {
	return Wrapf(ErrFunctionNotFound, "%s", name)
}

// NewInvalidConfig creates an invalid-config error with a formatted message
func NewInvalidConfig(format string, args ...interface{}) error {
	return Wrap(ErrInvalidConfig, Newf(format, args...).Error())
}
