package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrorTypeString(t *testing.T) {
	testCases := []struct {
		errorType ErrorType
		expected  string
	}{
		{ErrorTypeConfig, "config"},
		{ErrorTypeFileSystem, "filesystem"},
		{ErrorTypeResolve, "resolve"},
		{ErrorTypeList, "list"},
		{ErrorTypeAuthCancelled, "auth cancelled"},
		{ErrorTypeAuthFailed, "auth failed"},
		{ErrorTypeCancelled, "cancelled"},
		{ErrorTypeInternal, "internal"},
		{ErrorTypeFavorites, "favorites"},
		{ErrorType(999), "unknown"}, // Invalid error type
	}

	for _, tc := range testCases {
		result := tc.errorType.String()
		if result != tc.expected {
			t.Errorf("For error type %v, expected '%s', got '%s'", tc.errorType, tc.expected, result)
		}
	}
}

func TestAppErrorError(t *testing.T) {
	err := &AppError{
		Type:      ErrorTypeList,
		Operation: "list",
		Path:      "sftp://host/var/log",
		Message:   "permission denied",
		Err:       errors.New("access denied"),
	}

	expected := "list error in list [sftp://host/var/log]: permission denied"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}

	err2 := &AppError{
		Type:      ErrorTypeConfig,
		Operation: "load_config",
		Message:   "invalid JSON",
	}

	expected2 := "config error in load_config: invalid JSON"
	if err2.Error() != expected2 {
		t.Errorf("Expected error message '%s', got '%s'", expected2, err2.Error())
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	testCases := []struct {
		name string
		err  *AppError
		typ  ErrorType
		path string
	}{
		{"resolve", NewResolveFailed("ftp://h/x", cause), ErrorTypeResolve, "ftp://h/x"},
		{"list", NewListFailed("file:///tmp", cause), ErrorTypeList, "file:///tmp"},
		{"auth cancelled", NewAuthCancelled("smb://h/s"), ErrorTypeAuthCancelled, "smb://h/s"},
		{"auth failed", NewAuthFailed("smb://h/s", cause), ErrorTypeAuthFailed, "smb://h/s"},
		{"cancelled", NewCancelled("goto"), ErrorTypeCancelled, ""},
		{"internal", NewInternalError("goto", cause), ErrorTypeInternal, ""},
		{"favorites", NewFavoritesError("save", "/tmp/f", "write failed", cause), ErrorTypeFavorites, "/tmp/f"},
		{"filesystem", NewFileSystemError("read", "/etc", "denied", cause), ErrorTypeFileSystem, "/etc"},
		{"config", NewConfigError("load", "bad", cause), ErrorTypeConfig, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Type != tc.typ {
				t.Errorf("type = %v, want %v", tc.err.Type, tc.typ)
			}
			if tc.err.Path != tc.path {
				t.Errorf("path = %q, want %q", tc.err.Path, tc.path)
			}
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("navigate: %w", NewCancelled("goto"))
	if !errors.Is(wrapped, ErrCancelled) {
		t.Error("wrapped cancellation should match ErrCancelled")
	}
	if errors.Is(wrapped, ErrAuthFailed) {
		t.Error("cancellation must not match ErrAuthFailed")
	}
	if !errors.Is(NewAuthCancelled("sftp://h"), ErrAuthCancelled) {
		t.Error("auth cancelled should match its sentinel")
	}
}

func TestRootCause(t *testing.T) {
	inner := os.ErrNotExist
	err := NewResolveFailed("file:///nope", fmt.Errorf("stat: %w", inner))

	if got := RootCause(err); got != inner {
		t.Fatalf("RootCause = %v, want %v", got, inner)
	}
	if RootCause(nil) != nil {
		t.Fatal("RootCause(nil) should be nil")
	}
}

func TestDisplayMessage(t *testing.T) {
	err := NewListFailed("file:///root", fmt.Errorf("readdir: %w", os.ErrPermission))
	if got := DisplayMessage(err); got != "file:///root: permission denied" {
		t.Errorf("DisplayMessage = %q", got)
	}

	if got := DisplayMessage(NewAuthCancelled("sftp://h/a")); got != "sftp://h/a: credentials not provided" {
		t.Errorf("DisplayMessage = %q", got)
	}

	if got := DisplayMessage(errors.New("plain")); got != "plain" {
		t.Errorf("DisplayMessage = %q", got)
	}
}

func TestErrorChaining(t *testing.T) {
	originalErr := errors.New("original")
	appErr := NewConfigError("test", "test message", originalErr)

	if !errors.Is(appErr, originalErr) {
		t.Error("errors.Is should work with AppError")
	}

	var appErrPtr *AppError
	if !errors.As(appErr, &appErrPtr) {
		t.Error("errors.As should work with AppError")
	}
	if appErrPtr.Type != ErrorTypeConfig {
		t.Error("errors.As should preserve the correct error type")
	}
}
