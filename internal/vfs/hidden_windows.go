//go:build windows

package vfs

import (
	"syscall"
)

const fileAttributeHidden = 0x02

// isHiddenAttr checks the Windows hidden attribute.
func isHiddenAttr(path string) bool {
	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := syscall.GetFileAttributes(pathPtr)
	if err != nil {
		return false
	}
	return attrs&fileAttributeHidden != 0
}
