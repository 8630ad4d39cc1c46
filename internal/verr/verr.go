// Package verr provides structured errors for the crypto and protocol
// surfaces, so callers can branch on failure class without matching
// message strings.
package verr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindKey       Kind = "key"       // Key material missing, malformed, or wrong scheme
	KindSignature Kind = "signature" // Signing or verification mechanics failed
	KindFormat    Kind = "format"    // Malformed artifact (JSON, PEM, hex)
	KindState     Kind = "state"     // Backend or protocol in an unusable state
	KindIO        Kind = "io"        // Filesystem failure
)

// Error carries a failure kind, a stable rule identifier, and a message.
type Error struct {
	Kind    Kind
	Rule    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Kind, e.Rule, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Rule, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an error with no cause.
func New(kind Kind, rule, format string, args ...any) *Error {
	return &Error{Kind: kind, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error around a cause.
func Wrap(cause error, kind Kind, rule, format string, args ...any) *Error {
	return &Error{Kind: kind, Rule: rule, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether err (or anything it wraps) is an Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Rule returns the stable rule identifier of err, or "" when err is not a
// structured error.
func Rule(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Rule
	}
	return ""
}
