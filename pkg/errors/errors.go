// Package errors holds the typed and sentinel errors the session and
// task layers use internally before they are flattened into a
// wire.Reply at the worker's request-lifecycle boundary.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the task-dispatch validation steps (spec.md §4.3
// steps 1-3).
var (
	ErrUnknownTask     = errors.New("Unknown method name requested")
	ErrUnknownHost     = errors.New("Unknown or missing vSphere Agent requested")
	ErrMissingRequired = errors.New("Incorrect task request received")
	ErrObjectNotFound  = errors.New("Cannot find object")
)

// ConnectionError wraps a failure to (re)connect a Session to its
// upstream host. Its Error() string is the exact message the worker
// surfaces verbatim as a reply (spec.md §4.3).
type ConnectionError struct {
	Host  string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("Cannot connect to %s: %s", e.Host, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// NewConnectionError builds a ConnectionError.
func NewConnectionError(host string, cause error) *ConnectionError {
	return &ConnectionError{Host: host, Cause: cause}
}

// PerfPreconditionError reports a real-time/historical performance
// metric precondition failure (spec.md §7 error 7).
type PerfPreconditionError struct {
	Msg string
}

func (e *PerfPreconditionError) Error() string { return e.Msg }

// NewHistoricalIntervalRequired builds the exact message used when an
// entity lacks real-time support and no historical interval was given.
func NewHistoricalIntervalRequired(entity string) *PerfPreconditionError {
	return &PerfPreconditionError{Msg: fmt.Sprintf("No historical performance interval provided for entity %s", entity)}
}

// GuestPreconditionError reports a vm.process.get-style guest-agent
// precondition failure (spec.md §7 error 8).
type GuestPreconditionError struct {
	Msg string
}

func (e *GuestPreconditionError) Error() string { return e.Msg }
