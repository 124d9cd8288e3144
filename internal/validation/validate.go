// Package validation provides centralized input validation logic.
// This includes display-name and folder sanitation plus size checks.
//
// Names and folders travel to the backend verbatim, so they are validated
// before any record is created to prevent path traversal and control
// character injection.
package validation

import (
	"strings"
	"unicode"

	"github.com/fileforge/uploadq/errors"
)

// maxNameLength bounds a display name, matching common object-store key
// limits.
const maxNameLength = 1024

// ValidateDisplayName checks that a user-facing filename is usable as a
// storage name. Returns ErrInvalidName when it is not.
func ValidateDisplayName(name string) error {
	if name == "" {
		return errors.NewError("validateName", errors.ErrInvalidName).
			WithMessage("display name cannot be empty")
	}
	if len(name) > maxNameLength {
		return errors.NewError("validateName", errors.ErrInvalidName).
			WithName(name).
			WithMessage("display name cannot exceed 1024 characters")
	}
	if hasPathTraversal(name) {
		return errors.NewError("validateName", errors.ErrInvalidName).
			WithName(name).
			WithMessage("display name cannot contain path traversal sequences")
	}
	if hasControlCharacters(name) {
		return errors.NewError("validateName", errors.ErrInvalidName).
			WithName(name).
			WithMessage("display name cannot contain control characters")
	}
	return nil
}

// ValidateFolder checks that a target folder is safe to send to the
// backend. An empty folder is valid and means the storage root.
func ValidateFolder(folder string) error {
	if folder == "" {
		return nil
	}
	if hasPathTraversal(folder) {
		return errors.NewError("validateFolder", errors.ErrInvalidName).
			WithMessage("folder cannot contain path traversal sequences")
	}
	if hasControlCharacters(folder) {
		return errors.NewError("validateFolder", errors.ErrInvalidName).
			WithMessage("folder cannot contain control characters")
	}
	return nil
}

// ValidateSize checks a payload size against the configured maximum.
// A maximum of zero disables the check.
func ValidateSize(size, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return errors.NewError("validateSize", errors.ErrFileTooLarge)
	}
	return nil
}

// hasPathTraversal reports whether s contains sequences that could escape
// the target folder.
func hasPathTraversal(s string) bool {
	if strings.Contains(s, "..") {
		return true
	}
	return strings.HasPrefix(s, "/") || strings.Contains(s, "\\")
}

// hasControlCharacters reports whether s contains control characters,
// including NUL.
func hasControlCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
