package fileinfo

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// Scheme names understood by the parser.
const (
	SchemeFile  = "file"
	SchemeSFTP  = "sftp"
	SchemeFTP   = "ftp"
	SchemeSMB   = "smb"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeZip   = "zip"
	SchemeJar   = "jar"
	SchemeTar   = "tar"
	SchemeTgz   = "tgz"
	SchemeTbz2  = "tbz2"
)

// ErrInvalidURL is returned for input the parser cannot make sense of.
var ErrInvalidURL = errors.New("invalid url")

// URLInfo is a parsed VFS URL. Path is always absolute, slash separated and
// decoded. Layered (archive) URLs keep the container in Outer.
type URLInfo struct {
	Scheme   string
	Host     string
	Port     string
	User     string
	Password string
	Domain   string
	Path     string
	Outer    *URLInfo
}

// IsLayered reports whether the scheme addresses the inside of a file.
func IsLayered(scheme string) bool {
	switch scheme {
	case SchemeZip, SchemeJar, SchemeTar, SchemeTgz, SchemeTbz2:
		return true
	}
	return false
}

// ParseURL parses input into its components. Bare paths and "~" are
// treated as local files.
func ParseURL(input string) (URLInfo, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return URLInfo{}, fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	scheme, rest, ok := splitScheme(raw)
	if !ok {
		return parseLocalPath(raw)
	}

	if IsLayered(scheme) {
		bang := strings.LastIndex(rest, "!")
		outerRaw, inner := rest, "/"
		if bang >= 0 {
			outerRaw, inner = rest[:bang], rest[bang+1:]
		}
		outer, err := ParseURL(outerRaw)
		if err != nil {
			return URLInfo{}, err
		}
		inner, err = url.PathUnescape(inner)
		if err != nil {
			return URLInfo{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		return URLInfo{Scheme: scheme, Path: cleanPath(inner), Outer: &outer}, nil
	}

	if scheme == SchemeFile {
		p := strings.TrimPrefix(rest, "//")
		// file://host/path is not supported; only the empty authority.
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		p, err := url.PathUnescape(p)
		if err != nil {
			return URLInfo{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		return URLInfo{Scheme: SchemeFile, Path: cleanPath(p)}, nil
	}

	if !strings.HasPrefix(rest, "//") {
		return URLInfo{}, fmt.Errorf("%w: %s needs an authority", ErrInvalidURL, scheme)
	}
	rest = strings.TrimPrefix(rest, "//")
	authority, p := rest, "/"
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority, p = rest[:i], rest[i:]
	}

	u := URLInfo{Scheme: scheme}
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		u.User, u.Password, u.Domain = parseUserInfo(authority[:at])
		authority = authority[at+1:]
	}
	host, port, err := splitHostPort(authority)
	if err != nil {
		return URLInfo{}, err
	}
	if host == "" {
		return URLInfo{}, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	u.Host, u.Port = host, port

	if q := strings.IndexAny(p, "?#"); q >= 0 {
		p = p[:q]
	}
	p, err = url.PathUnescape(p)
	if err != nil {
		return URLInfo{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u.Path = cleanPath(p)
	return u, nil
}

// parseUserInfo splits "[domain;|domain\]user[:pass]".
func parseUserInfo(cred string) (user, pass, domain string) {
	if colon := strings.Index(cred, ":"); colon >= 0 {
		pass = cred[colon+1:]
		cred = cred[:colon]
	}
	if semi := strings.Index(cred, ";"); semi >= 0 {
		domain = cred[:semi]
		user = cred[semi+1:]
	} else if bs := strings.Index(cred, "\\"); bs >= 0 {
		domain = cred[:bs]
		user = cred[bs+1:]
	} else {
		user = cred
	}
	if u, err := url.PathUnescape(user); err == nil {
		user = u
	}
	if p, err := url.PathUnescape(pass); err == nil {
		pass = p
	}
	return user, pass, domain
}

func splitScheme(raw string) (scheme, rest string, ok bool) {
	i := strings.Index(raw, ":")
	// a single letter before ':' is a Windows drive, not a scheme
	if i <= 1 {
		return "", "", false
	}
	scheme = strings.ToLower(raw[:i])
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return "", "", false
		}
	}
	return scheme, raw[i+1:], true
}

func splitHostPort(authority string) (host, port string, err error) {
	if strings.HasPrefix(authority, "[") {
		end := strings.Index(authority, "]")
		if end < 0 {
			return "", "", fmt.Errorf("%w: unterminated IPv6 host", ErrInvalidURL)
		}
		host = authority[1:end]
		if rest := authority[end+1:]; strings.HasPrefix(rest, ":") {
			port = rest[1:]
		}
		return host, port, nil
	}
	if strings.Count(authority, ":") == 1 {
		i := strings.IndexByte(authority, ':')
		return authority[:i], authority[i+1:], nil
	}
	return authority, "", nil
}

func parseLocalPath(raw string) (URLInfo, error) {
	p := raw
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return URLInfo{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		p = filepath.Join(home, p[1:])
	}
	if !filepath.IsAbs(p) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return URLInfo{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		p = abs
	}
	p = filepath.ToSlash(p)
	if runtime.GOOS == "windows" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return URLInfo{Scheme: SchemeFile, Path: cleanPath(p)}, nil
}

func cleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return "/"
	}
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}

// String returns the canonical URL: password omitted, path escaped.
func (u URLInfo) String() string {
	return u.format(true, false)
}

// Friendly returns the display form: no user info, decoded path.
func (u URLInfo) Friendly() string {
	return u.format(false, true)
}

func (u URLInfo) format(withUser, decoded bool) string {
	p := u.Path
	if !decoded {
		p = (&url.URL{Path: p}).EscapedPath()
	}
	if u.Outer != nil {
		return u.Scheme + ":" + u.Outer.format(withUser, decoded) + "!" + p
	}
	if u.Scheme == SchemeFile {
		return "file://" + p
	}
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if withUser && u.User != "" {
		if u.Domain != "" {
			b.WriteString(u.Domain)
			b.WriteString(";")
		}
		b.WriteString(url.PathEscape(u.User))
		b.WriteString("@")
	}
	if strings.Contains(u.Host, ":") {
		b.WriteString("[" + u.Host + "]")
	} else {
		b.WriteString(u.Host)
	}
	if u.Port != "" {
		b.WriteString(":")
		b.WriteString(u.Port)
	}
	b.WriteString(p)
	return b.String()
}

// NativePath converts a file URL path into an OS path.
func (u URLInfo) NativePath() string {
	p := u.Path
	if runtime.GOOS == "windows" && len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// WithPath returns a copy addressing p on the same filesystem.
func (u URLInfo) WithPath(p string) URLInfo {
	u.Path = cleanPath(p)
	return u
}

// Child returns the URL of name inside u.
func (u URLInfo) Child(name string) URLInfo {
	return u.WithPath(path.Join(u.Path, name))
}

// IsRoot reports whether u addresses the root of its filesystem.
func (u URLInfo) IsRoot() bool { return u.Path == "/" }

// Parent returns the structural parent. Roots have none, except the root
// of an archive whose parent is the folder holding the archive.
func (u URLInfo) Parent() (URLInfo, bool) {
	if !u.IsRoot() {
		return u.WithPath(path.Dir(u.Path)), true
	}
	if u.Outer != nil {
		return u.Outer.Parent()
	}
	return URLInfo{}, false
}

// BaseName returns the last path segment, or "/" at the root.
func (u URLInfo) BaseName() string {
	if u.IsRoot() {
		if u.Outer != nil {
			return u.Outer.BaseName()
		}
		return "/"
	}
	return path.Base(u.Path)
}

// HostKey identifies the server for connection pooling and credentials.
func (u URLInfo) HostKey() string {
	return u.Scheme + "://" + net.JoinHostPort(u.Host, u.Port)
}
