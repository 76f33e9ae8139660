// Package exitcode maps guestgatectl failures to process exit codes.
// Commands return errors; main reports them once and exits with Of(err).
package exitcode

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Process exit codes
const (
	Success          = 0
	General          = 1 // network failure, server 500, anything unclassified
	InvalidArguments = 2 // bad usage or a rejected request
	NotFound         = 3 // 404
	Unavailable      = 4 // server still loading, or its users storage is down (502, 503)
	Auth             = 5 // 401
	PermissionDenied = 6 // 403
)

// Error carries the exit code of a failed command.
// A nil Err exits silently; the command already reported the outcome.
type Error struct {
	Code int
	Err  error
	Hint string
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error with a formatted message
func New(code int, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// Silent returns an Error that only sets the exit code
func Silent(code int) *Error {
	return &Error{Code: code}
}

// FromStatus maps an HTTP status to an exit code
func FromStatus(status int) int {
	switch {
	case status == http.StatusUnauthorized:
		return Auth
	case status == http.StatusForbidden:
		return PermissionDenied
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
		return Unavailable
	case status >= 400 && status < 500:
		return InvalidArguments
	case status >= 200 && status < 300:
		return Success
	default:
		return General
	}
}

// ForStatus wraps err with the exit code of status. 401 responses get a
// login hint.
func ForStatus(status int, err error) *Error {
	e := &Error{Code: FromStatus(status), Err: err}
	if status == http.StatusUnauthorized {
		e.Hint = "run 'guestgatectl login' to authenticate"
	}
	return e
}

// Of returns the exit code for err
func Of(err error) int {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return General
}

// Report prints err and its hint to w and returns its exit code
func Report(w io.Writer, err error) int {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) && e.Err == nil {
		return e.Code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.As(err, &e) && e.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", e.Hint)
	}
	return Of(err)
}
