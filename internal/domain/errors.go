package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidTransition  = errors.New("command not legal from current status")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateSignature = errors.New("signer already signed this document")
	ErrConflict           = errors.New("document was modified concurrently")
	ErrValidation         = errors.New("validation failed")
	ErrUnavailable        = errors.New("store unavailable")

	// Specific not-found errors still satisfy errors.Is(err, ErrNotFound).
	ErrDocumentNotFound     = fmt.Errorf("document: %w", ErrNotFound)
	ErrDepartmentNotFound   = fmt.Errorf("department: %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user: %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification: %w", ErrNotFound)

	ErrDuplicateHumanCode = errors.New("human code already in use")
	ErrUnsupportedFile    = fmt.Errorf("%w: unsupported attachment type", ErrValidation)
	ErrFileTooLarge       = errors.New("attachment exceeds maximum allowed size")
	ErrUploadFailed       = errors.New("attachment upload to storage failed")
)

// IsDomainError reports whether err carries one of the recoverable domain sentinels.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidTransition, ErrUnauthorized, ErrDuplicateSignature,
		ErrConflict, ErrValidation, ErrUnavailable, ErrDuplicateHumanCode,
		ErrFileTooLarge, ErrUploadFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Validationf builds an ErrValidation with a field-level message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
