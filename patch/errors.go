package patch

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError is a fatal parse-time failure: a malformed header, a
// truncated hunk, or mangled context. The driver surfaces these
// immediately and aborts the stream (spec.md §7, exit code 2).
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed patch at line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func errParsef(format string, args ...interface{}) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

func parseErrorAt(line int, format string, args ...interface{}) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// PolicyError is a fatal abort driven by driver policy: the driver returns
// one when a patch's "Prereq:" text is missing from the target and Force
// is not set, in every mode; it does not prompt first. spec.md §7 reports these
// with the literal message "aborted" at exit code 2.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	if e.Reason == "" {
		return "aborted"
	}
	return "aborted: " + e.Reason
}

func newPolicyError(reason string) error {
	return &PolicyError{Reason: reason}
}

// ApplyError wraps an I/O or filesystem failure encountered while
// committing a patch (spec.md §7, "I/O" kind).
type ApplyError struct {
	Path string
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

func (e *ApplyError) Cause() error { return e.Err }

func newApplyError(path string, err error) error {
	return &ApplyError{Path: path, Err: errors.WithStack(err)}
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsPolicyError reports whether err is (or wraps) a *PolicyError.
func IsPolicyError(err error) bool {
	var pe *PolicyError
	return errors.As(err, &pe)
}
