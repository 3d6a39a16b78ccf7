package fileinfo

import (
	"path"
	"strings"
)

// JoinURL joins base and name for display or canonical URLs. Layered URLs
// without an inner path get the "!" separator.
func JoinURL(base, name string) string {
	if i := strings.Index(base, ":"); i > 1 && IsLayered(strings.ToLower(base[:i])) && !strings.Contains(base, "!") {
		return base + "!/" + strings.TrimLeft(name, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(name, "/")
}

// IsRelative reports whether input names something below the current
// location rather than a URL or an absolute path.
func IsRelative(input string) bool {
	switch {
	case input == "", strings.Contains(input, "://"), strings.Contains(input, ":file:"):
		return false
	case strings.HasPrefix(input, "/"), strings.HasPrefix(input, "~"), strings.HasPrefix(input, `\\`):
		return false
	case len(input) >= 2 && input[1] == ':':
		return false
	}
	return true
}

// BaseName returns the last decoded path segment of u.
func BaseName(u string) string {
	info, err := ParseURL(u)
	if err != nil {
		return path.Base(strings.TrimRight(u, "/"))
	}
	return info.BaseName()
}

// SameLocation compares two URLs after canonicalization.
func SameLocation(a, b string) bool {
	ia, errA := ParseURL(a)
	ib, errB := ParseURL(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ia.String() == ib.String()
}
