// Package apperr holds the error taxonomy shared by the launcher core.
//
// Every failure that can cross the core boundary is an *Error carrying a
// Kind. Callers classify with Is or KindOf and never by matching messages.
package apperr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a core failure
type Kind int

const (
	// Unknown is any error that was not produced by the core
	Unknown Kind = iota
	// NotFound means the application id is not in the registry
	NotFound
	// NotInstalled means an expected filesystem artifact is absent
	NotInstalled
	// Format means the registry file is malformed
	Format
	// Filesystem means an I/O failure during read, delete or size accounting
	Filesystem
	// Network means the upstream release feed could not be reached
	Network
	// Upstream means the release feed answered with an unexpected status
	Upstream
	// Parse means a document or version string could not be parsed
	Parse
)

var kindNames = map[Kind]string{
	Unknown:      "unknown",
	NotFound:     "not_found",
	NotInstalled: "not_installed",
	Format:       "format",
	Filesystem:   "filesystem",
	Network:      "network",
	Upstream:     "upstream",
	Parse:        "parse",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified core failure
type Error struct {
	Kind Kind
	// StatusCode is set for Upstream errors
	StatusCode int
	err        error
}

func (e *Error) Error() string {
	return e.err.Error()
}

// Unwrap exposes the wrapped cause
func (e *Error) Unwrap() error {
	return e.err
}

// Cause keeps compatibility with errors.Cause
func (e *Error) Cause() error {
	return e.err
}

// New creates a classified error with a formatted message
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, err: errors.Errorf(format, args...)}
}

// Wrap classifies err and annotates it with a formatted message.
// A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: errors.Wrapf(err, format, args...)}
}

// UpstreamStatus creates an Upstream error for an unexpected HTTP status
func UpstreamStatus(code int, format string, args ...interface{}) error {
	return &Error{Kind: Upstream, StatusCode: code, err: errors.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
