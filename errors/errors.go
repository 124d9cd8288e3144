// Package errors provides error types and handling for upload operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an upload operation error with context about the
// operation and file that failed. It wraps the underlying transport or
// validation error for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "presign", "proxyUpload", "addPaths")
	Op string

	// Name is the display name of the file involved (if applicable)
	Name string

	// Remote is the failure message supplied by the backend, kept
	// verbatim for user-facing reporting
	Remote string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("uploadq.%s %s: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("uploadq.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithName adds file-name context to an existing error.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// WithRemote records the backend's own failure message verbatim.
func (e *Error) WithRemote(message string) *Error {
	e.Remote = message
	return e
}

// RemoteMessage returns the backend-supplied failure message carried by
// err, or the empty string when there is none.
func RemoteMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Remote != "" {
		return e.Remote
	}
	return ""
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// Sentinel errors for common upload failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrNoTransport indicates that no upload endpoint or storage client
	// was configured
	ErrNoTransport = errors.New("uploadq: no upload transport configured")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("uploadq: invalid input")

	// ErrFileNotFound indicates that no tracked file exists for the id
	ErrFileNotFound = errors.New("uploadq: file not found")

	// ErrFileTooLarge indicates that the payload exceeds the configured
	// maximum size
	ErrFileTooLarge = errors.New("uploadq: file too large")

	// ErrUploadFailed indicates that the remote side rejected the transfer
	ErrUploadFailed = errors.New("uploadq: upload failed")

	// ErrMalformedResponse indicates that the backend returned a body the
	// client could not use
	ErrMalformedResponse = errors.New("uploadq: malformed response")

	// ErrConflictUnresolved indicates a name conflict the caller declined
	// to resolve
	ErrConflictUnresolved = errors.New("uploadq: name conflict unresolved")

	// ErrInvalidName indicates an unusable display name or folder
	ErrInvalidName = errors.New("uploadq: invalid name")

	// ErrClosed indicates the manager has been closed
	ErrClosed = errors.New("uploadq: manager closed")
)

// IsUploadFailed checks if an error indicates a rejected transfer.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsUploadFailed(err error) bool {
	return errors.Is(err, ErrUploadFailed)
}

// IsInvalidInput checks if an error indicates invalid input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFileNotFound checks if an error indicates a missing tracked file.
func IsFileNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}
