package nfs

import (
	"errors"
	"fmt"
)

const (
	ErrSyntax   = "SYNTAX"
	ErrSystem   = "SYSTEM"
	ErrNotFound = "NOT_FOUND"
	ErrInvalid  = "INVALID"
)

type ShareError struct {
	Code    string
	Message string
	Err     error
}

func (e *ShareError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ShareError) Unwrap() error { return e.Err }

var (
	// ErrNotHeld is returned when releasing a lock handle that was already released.
	ErrNotHeld = &ShareError{Code: ErrNotFound, Message: "exports lock not held"}

	// ErrLockTimeout is returned when the exports lock could not be taken in time.
	ErrLockTimeout = &ShareError{Code: ErrSystem, Message: "timed out waiting for exports lock"}
)

func syntaxError(format string, args ...any) error {
	return &ShareError{Code: ErrSyntax, Message: fmt.Sprintf(format, args...)}
}

func systemError(err error, format string, args ...any) error {
	return &ShareError{Code: ErrSystem, Message: fmt.Sprintf(format, args...), Err: err}
}

// Code returns the ShareError code carried by err, or "" for foreign errors.
func Code(err error) string {
	var se *ShareError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
