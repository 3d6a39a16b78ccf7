package vfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"

	apperrors "vfsnav/internal/errors"
)

// Kind classifies provider failures.
type Kind int

const (
	KindIO Kind = iota
	KindNotFound
	KindNotAuthorized
	KindTimeout
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindNotAuthorized:
		return "NotAuthorized"
	case KindTimeout:
		return "Timeout"
	case KindProtocol:
		return "ProtocolError"
	default:
		return "Io"
	}
}

// Error is returned by every Manager operation.
type Error struct {
	Kind Kind
	Op   string
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.URL, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotArchive is returned when a FILE_OR_FOLDER candidate has no
// recognizable archive format.
var ErrNotArchive = errors.New("not a supported archive")

// ErrUnsupportedScheme is returned for URLs no backend serves.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// IsKind reports whether err is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == k
}

// wrap classifies err for op on url. Errors that are already classified or
// that carry an application error type pass through unchanged.
func wrap(op, url string, err error) error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return err
	}
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, URL: url, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, os.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission), isAuthError(err):
		return KindNotAuthorized
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrNotArchive), errors.Is(err, ErrUnsupportedScheme):
		return KindProtocol
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindIO
}

// isAuthError recognizes the textual auth failures of SMB, SSH and FTP
// servers that do not map to fs.ErrPermission.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	e := strings.ToLower(err.Error())
	for _, marker := range []string{
		"logon is invalid",
		"bad username",
		"status_logon_failure",
		"access is denied",
		"unable to authenticate",
		"no supported methods remain",
		"530 ",
		"login incorrect",
		"401 unauthorized",
	} {
		if strings.Contains(e, marker) {
			return true
		}
	}
	return false
}
