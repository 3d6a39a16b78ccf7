package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType int

const (
	ErrorTypeConfig ErrorType = iota
	ErrorTypeFileSystem
	ErrorTypeResolve
	ErrorTypeList
	ErrorTypeAuthCancelled
	ErrorTypeAuthFailed
	ErrorTypeCancelled
	ErrorTypeInternal
	ErrorTypeFavorites
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfig:
		return "config"
	case ErrorTypeFileSystem:
		return "filesystem"
	case ErrorTypeResolve:
		return "resolve"
	case ErrorTypeList:
		return "list"
	case ErrorTypeAuthCancelled:
		return "auth cancelled"
	case ErrorTypeAuthFailed:
		return "auth failed"
	case ErrorTypeCancelled:
		return "cancelled"
	case ErrorTypeInternal:
		return "internal"
	case ErrorTypeFavorites:
		return "favorites"
	default:
		return "unknown"
	}
}

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error in %s [%s]: %s", e.Type, e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by Type so callers can test
// errors.Is(err, ErrCancelled) regardless of the wrapped cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Operation == "" && t.Path == ""
}

// Sentinels for errors.Is checks.
var (
	ErrCancelled     = &AppError{Type: ErrorTypeCancelled}
	ErrAuthCancelled = &AppError{Type: ErrorTypeAuthCancelled}
	ErrAuthFailed    = &AppError{Type: ErrorTypeAuthFailed}
	ErrResolveFailed = &AppError{Type: ErrorTypeResolve}
	ErrListFailed    = &AppError{Type: ErrorTypeList}
	ErrInternal      = &AppError{Type: ErrorTypeInternal}
)

// NewConfigError creates a new configuration error
func NewConfigError(operation, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeConfig,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewFileSystemError creates a new filesystem error
func NewFileSystemError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeFileSystem,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewResolveFailed reports a URL that could not be resolved.
func NewResolveFailed(url string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeResolve,
		Operation: "resolve",
		Path:      url,
		Message:   causeMessage(err, "cannot resolve location"),
		Err:       err,
	}
}

// NewListFailed reports a failed children enumeration.
func NewListFailed(url string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeList,
		Operation: "list",
		Path:      url,
		Message:   causeMessage(err, "cannot list folder"),
		Err:       err,
	}
}

// NewAuthCancelled reports that the user declined to provide credentials.
func NewAuthCancelled(url string) *AppError {
	return &AppError{
		Type:      ErrorTypeAuthCancelled,
		Operation: "authenticate",
		Path:      url,
		Message:   "credentials not provided",
	}
}

// NewAuthFailed reports rejected credentials.
func NewAuthFailed(url string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeAuthFailed,
		Operation: "authenticate",
		Path:      url,
		Message:   "credentials rejected",
		Err:       err,
	}
}

// NewCancelled reports a superseded or explicitly cancelled operation.
func NewCancelled(operation string) *AppError {
	return &AppError{
		Type:      ErrorTypeCancelled,
		Operation: operation,
		Message:   "cancelled",
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(operation string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Operation: operation,
		Message:   causeMessage(err, "unexpected failure"),
		Err:       err,
	}
}

// NewFavoritesError creates a favorites persistence error
func NewFavoritesError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeFavorites,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// RootCause follows the Unwrap chain to the innermost error.
func RootCause(err error) error {
	for err != nil {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

// DisplayMessage formats err for the user: the root cause, prefixed with the
// failing location when one is known.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	root := RootCause(err)
	var app *AppError
	if stderrors.As(err, &app) {
		if root == error(app) {
			if app.Path != "" {
				return fmt.Sprintf("%s: %s", app.Path, app.Message)
			}
			return app.Message
		}
		if app.Path != "" {
			return fmt.Sprintf("%s: %v", app.Path, root)
		}
	}
	return root.Error()
}

func causeMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}
