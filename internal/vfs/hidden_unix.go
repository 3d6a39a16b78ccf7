//go:build !windows

package vfs

// isHiddenAttr always returns false on non-Windows systems; the dot-file
// convention is applied separately.
func isHiddenAttr(path string) bool {
	return false
}
