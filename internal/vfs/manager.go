// Package vfs is the facade over the virtual filesystem: URL resolution,
// listing, metadata, reading and a metadata cache, with one backend per
// scheme family.
package vfs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"vfsnav/internal/auth"
	"vfsnav/internal/constants"
	"vfsnav/internal/fileinfo"
)

// Manager routes operations to backends by scheme and caches metadata.
type Manager struct {
	mu       sync.RWMutex
	backends map[string]Backend
	cache    *expirable.LRU[string, fileinfo.FileRef]
	auth     Authenticator

	debugPrint func(format string, args ...interface{})
}

// Options configures a Manager.
type Options struct {
	Auth       Authenticator
	CacheSize  int
	CacheTTL   time.Duration
	DebugPrint func(format string, args ...interface{})
}

// NewManager builds a Manager without backends; see Register and
// NewDefault.
func NewManager(opts Options) *Manager {
	if opts.CacheSize <= 0 {
		opts.CacheSize = constants.MetadataCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = constants.MetadataCacheTTL
	}
	if opts.Auth == nil {
		opts.Auth = noAuth{}
	}
	if opts.DebugPrint == nil {
		opts.DebugPrint = func(string, ...interface{}) {}
	}
	return &Manager{
		backends:   make(map[string]Backend),
		cache:      expirable.NewLRU[string, fileinfo.FileRef](opts.CacheSize, nil, opts.CacheTTL),
		auth:       opts.Auth,
		debugPrint: opts.DebugPrint,
	}
}

// Register installs b for every scheme it serves, replacing earlier ones.
func (m *Manager) Register(b Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range b.Schemes() {
		m.backends[s] = b
	}
}

// Auth returns the authenticator shared with the backends.
func (m *Manager) Auth() Authenticator { return m.auth }

func (m *Manager) backend(scheme string) (Backend, error) {
	m.mu.RLock()
	b, ok := m.backends[scheme]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	return b, nil
}

// Resolve parses raw and returns a handle with its metadata. Passwords in
// the URL are handed to the authenticator and never kept in the ref.
func (m *Manager) Resolve(ctx context.Context, raw string) (fileinfo.FileRef, error) {
	u, err := fileinfo.ParseURL(raw)
	if err != nil {
		return fileinfo.FileRef{}, wrap("resolve", raw, err)
	}
	m.seed(u)
	return m.statURL(ctx, u)
}

func (m *Manager) seed(u fileinfo.URLInfo) {
	for cur := &u; cur != nil; cur = cur.Outer {
		if cur.User != "" && cur.Password != "" {
			m.auth.Seed(auth.Credential{
				Scheme: cur.Scheme, Host: cur.Host, User: cur.User, Secret: cur.Password, Domain: cur.Domain,
			})
		}
	}
}

// Stat returns fresh-or-cached metadata for ref.
func (m *Manager) Stat(ctx context.Context, ref fileinfo.FileRef) (fileinfo.FileRef, error) {
	u, err := fileinfo.ParseURL(ref.URL)
	if err != nil {
		return fileinfo.FileRef{}, wrap("stat", ref.URL, err)
	}
	return m.statURL(ctx, u)
}

func (m *Manager) statURL(ctx context.Context, u fileinfo.URLInfo) (fileinfo.FileRef, error) {
	key := u.String()
	if ref, ok := m.cache.Get(key); ok {
		return ref, nil
	}
	b, err := m.backend(u.Scheme)
	if err != nil {
		return fileinfo.FileRef{}, wrap("stat", u.Friendly(), err)
	}
	e, err := b.Stat(ctx, u)
	if err != nil {
		return fileinfo.FileRef{}, wrap("stat", u.Friendly(), err)
	}
	ref := makeRef(u, e)
	m.cache.Add(key, ref)
	return ref, nil
}

// Children lists the direct children of ref in provider order. Archives
// (FILE_OR_FOLDER) are listed from their root.
func (m *Manager) Children(ctx context.Context, ref fileinfo.FileRef) ([]fileinfo.FileRef, error) {
	ref = m.Enter(ref)
	u, err := fileinfo.ParseURL(ref.URL)
	if err != nil {
		return nil, wrap("list", ref.URL, err)
	}
	b, err := m.backend(u.Scheme)
	if err != nil {
		return nil, wrap("list", ref.FriendlyURL, err)
	}
	entries, err := b.List(ctx, u)
	if err != nil {
		return nil, wrap("list", u.Friendly(), err)
	}
	out := make([]fileinfo.FileRef, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" || e.Name == "." || e.Name == constants.ParentDirectoryName {
			continue
		}
		cu := u.Child(e.Name)
		child := makeRef(cu, e)
		if seen[child.URL] {
			continue
		}
		seen[child.URL] = true
		m.cache.Add(child.URL, child)
		out = append(out, child)
	}
	m.debugPrint("vfs: listed %s (%d entries)", u.Friendly(), len(out))
	return out, nil
}

// Enter maps an archive file to the root of its contents. Other refs are
// returned unchanged.
func (m *Manager) Enter(ref fileinfo.FileRef) fileinfo.FileRef {
	if ref.Type != fileinfo.TypeFileOrFolder {
		return ref
	}
	u, err := fileinfo.ParseURL(ref.URL)
	if err != nil {
		return ref
	}
	scheme := ArchiveScheme(u.BaseName())
	if scheme == "" {
		return ref
	}
	root := fileinfo.URLInfo{Scheme: scheme, Path: "/", Outer: &u}
	out := makeRef(root, Entry{Dir: true, Modified: ref.Modified})
	out.BaseName = ref.BaseName
	return out
}

// Parent returns the structural parent of ref, or false at a scheme root.
func (m *Manager) Parent(ref fileinfo.FileRef) (fileinfo.FileRef, bool) {
	u, err := fileinfo.ParseURL(ref.URL)
	if err != nil {
		return fileinfo.FileRef{}, false
	}
	p, ok := u.Parent()
	if !ok {
		return fileinfo.FileRef{}, false
	}
	if cached, hit := m.cache.Peek(p.String()); hit {
		return cached, true
	}
	return makeRef(p, Entry{Dir: true}), true
}

// forgetter is implemented by backends holding per-URL state, such as open
// archives.
type forgetter interface {
	Forget(url string)
}

// Refresh drops cached metadata of ref and its direct children.
func (m *Manager) Refresh(ref fileinfo.FileRef) {
	target := m.Enter(ref)
	m.mu.RLock()
	for _, b := range m.backends {
		if f, ok := b.(forgetter); ok {
			f.Forget(ref.URL)
		}
	}
	m.mu.RUnlock()
	m.cache.Remove(ref.URL)
	m.cache.Remove(target.URL)
	for _, key := range m.cache.Keys() {
		if v, ok := m.cache.Peek(key); ok && (v.ParentURL == ref.URL || v.ParentURL == target.URL) {
			m.cache.Remove(key)
		}
	}
}

// OpenRead opens the content of ref.
func (m *Manager) OpenRead(ctx context.Context, ref fileinfo.FileRef) (io.ReadCloser, error) {
	if !ref.Type.HasContent() && ref.Type != fileinfo.TypeImaginary {
		return nil, &Error{Kind: KindProtocol, Op: "open", URL: ref.FriendlyURL, Err: fmt.Errorf("%s is a folder", ref.BaseName)}
	}
	u, err := fileinfo.ParseURL(ref.URL)
	if err != nil {
		return nil, wrap("open", ref.URL, err)
	}
	return m.openURL(ctx, u)
}

func (m *Manager) openURL(ctx context.Context, u fileinfo.URLInfo) (io.ReadCloser, error) {
	b, err := m.backend(u.Scheme)
	if err != nil {
		return nil, wrap("open", u.Friendly(), err)
	}
	rc, err := b.Open(ctx, u)
	if err != nil {
		return nil, wrap("open", u.Friendly(), err)
	}
	return rc, nil
}

// SupportsLinks reports whether the scheme's backend can read symlinks.
func (m *Manager) SupportsLinks(scheme string) bool {
	b, err := m.backend(scheme)
	if err != nil {
		return false
	}
	_, ok := b.(LinkReader)
	return ok
}

// ResolveLink follows a symbolic link. The returned ref keeps the link's
// URL and name but takes the target's type, and records the target URL.
// Non-links are returned unchanged.
func (m *Manager) ResolveLink(ctx context.Context, ref fileinfo.FileRef) (fileinfo.FileRef, error) {
	if !ref.Symlink {
		return ref, nil
	}
	u, err := fileinfo.ParseURL(ref.URL)
	if err != nil {
		return ref, wrap("readlink", ref.URL, err)
	}
	b, err := m.backend(u.Scheme)
	if err != nil {
		return ref, wrap("readlink", ref.FriendlyURL, err)
	}
	lr, ok := b.(LinkReader)
	if !ok {
		return ref, nil
	}
	target, err := lr.Readlink(ctx, u)
	if err != nil {
		return ref, wrap("readlink", ref.FriendlyURL, err)
	}
	if !strings.HasPrefix(target, "/") {
		target = path.Join(path.Dir(u.Path), target)
	}
	tu := u.WithPath(target)
	out := ref.WithLink(tu.String())
	e, err := b.Stat(ctx, tu)
	if err != nil {
		// dangling link: keep it as a file
		m.debugPrint("vfs: dangling link %s -> %s: %v", ref.FriendlyURL, tu.Friendly(), err)
		m.cache.Add(out.URL, out)
		return out, nil
	}
	out.Type = refType(tu, e)
	out.Size = e.Size
	m.cache.Add(out.URL, out)
	return out, nil
}

// CanNavigate reports whether ref can be listed.
func (m *Manager) CanNavigate(ctx context.Context, ref fileinfo.FileRef) bool {
	if ref.Type == fileinfo.TypeImaginary {
		fresh, err := m.Stat(ctx, ref)
		if err != nil {
			return false
		}
		ref = fresh
	}
	return ref.Type.HasChildren()
}

// Close releases pooled connections of backends that hold any.
func (m *Manager) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[Backend]bool)
	var first error
	for _, b := range m.backends {
		if seen[b] {
			continue
		}
		seen[b] = true
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	m.cache.Purge()
	return first
}

func makeRef(u fileinfo.URLInfo, e Entry) fileinfo.FileRef {
	name := u.BaseName()
	ref := fileinfo.FileRef{
		URL:         u.String(),
		FriendlyURL: u.Friendly(),
		BaseName:    name,
		Scheme:      u.Scheme,
		Type:        refType(u, e),
		Modified:    e.Modified,
		Hidden:      e.Hidden || fileinfo.IsHiddenName(name),
		Symlink:     e.Symlink,
	}
	if !e.Dir && e.Size > 0 {
		ref.Size = e.Size
	}
	if p, ok := u.Parent(); ok {
		ref.ParentURL = p.String()
	}
	return ref
}

func refType(u fileinfo.URLInfo, e Entry) fileinfo.FileType {
	if e.Dir {
		return fileinfo.TypeFolder
	}
	if ArchiveScheme(u.BaseName()) != "" {
		return fileinfo.TypeFileOrFolder
	}
	return fileinfo.TypeFile
}

// ArchiveScheme returns the layered scheme for an archive file name, or ""
// when the name has no archive extension.
func ArchiveScheme(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return fileinfo.SchemeTgz
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return fileinfo.SchemeTbz2
	case strings.HasSuffix(lower, ".tar"):
		return fileinfo.SchemeTar
	case strings.HasSuffix(lower, ".jar"), strings.HasSuffix(lower, ".war"), strings.HasSuffix(lower, ".ear"):
		return fileinfo.SchemeJar
	case strings.HasSuffix(lower, ".zip"):
		return fileinfo.SchemeZip
	}
	return ""
}
