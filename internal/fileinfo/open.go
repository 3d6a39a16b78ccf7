package fileinfo

import (
	"fmt"
	"strings"
)

// OpenTarget returns what the desktop opener should be handed for ref:
// a native path for local files, the URL itself for web resources and a
// UNC path for SMB shares on Windows. Other schemes cannot be opened
// outside the browser.
func OpenTarget(ref FileRef, windows bool) (string, error) {
	u, err := ParseURL(ref.URL)
	if err != nil {
		return "", err
	}
	switch {
	case u.Scheme == SchemeFile:
		return u.NativePath(), nil
	case u.Scheme == SchemeHTTP || u.Scheme == SchemeHTTPS:
		return ref.URL, nil
	case u.Scheme == SchemeSMB && windows:
		return `\\` + u.Host + strings.ReplaceAll(u.Path, "/", `\`), nil
	}
	return "", fmt.Errorf("cannot open %s with the desktop: unsupported scheme %q", ref.FriendlyURL, u.Scheme)
}
