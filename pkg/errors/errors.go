package errors

import (
	"errors"
	"fmt"
)

// Application errors. Handlers map these to stable response codes with errors.Is/As.

var (
	// ErrValidation indicates a missing or empty input (identity claim, uploaded file)
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a roster lookup matched no record
	ErrNotFound = errors.New("not found")

	// ErrStorage indicates the underlying query or connection failed
	ErrStorage = errors.New("storage error")

	// ErrParse indicates an uploaded spreadsheet could not be parsed
	ErrParse = errors.New("parse error")

	// ErrEmptySheet indicates an uploaded spreadsheet has no data rows
	ErrEmptySheet = errors.New("spreadsheet has no data rows")

	// ErrNotLoggedIn indicates logout was attempted without an active session
	ErrNotLoggedIn = errors.New("not logged in")
)

// ValidationError creates a validation error with context
func ValidationError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrValidation)
}

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// StorageError wraps an underlying storage failure
func StorageError(operation string, err error) error {
	return fmt.Errorf("%s: %w: %w", operation, ErrStorage, err)
}

// ParseError creates a parse error with context
func ParseError(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrParse)
}

// RowParseError is a parse error tied to a specific 1-based data row.
type RowParseError struct {
	Row    int
	Reason string
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e *RowParseError) Unwrap() error {
	return ErrParse
}

// ImportError reports the first data row whose insert failed.
// Rows before Row were committed and are not rolled back.
type ImportError struct {
	Row       int // 1-based data row index
	Attempted int
	Succeeded int
	Err       error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed at row %d (%d rows imported): %v", e.Row, e.Succeeded, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
