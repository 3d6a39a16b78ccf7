//go:build !windows

package fileinfo

import (
	"errors"
	"os/exec"
)

// OpenWithDefaultApp opens ref with the desktop's default application.
func OpenWithDefaultApp(ref FileRef) error {
	target, err := OpenTarget(ref, false)
	if err != nil {
		return err
	}
	candidates := [][]string{
		{"xdg-open", target},
		{"gio", "open", target},
		{"open", target},
	}
	var lastErr error
	for _, args := range candidates {
		path, lookErr := exec.LookPath(args[0])
		if lookErr != nil {
			continue
		}
		if err := exec.Command(path, args[1:]...).Start(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no suitable opener found (xdg-open/gio/open)")
	}
	return lastErr
}
