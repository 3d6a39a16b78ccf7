package vfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mholt/archives"

	"vfsnav/internal/fileinfo"
)

type openedArchive struct {
	fsys   fs.FS
	closer io.Closer
}

// ArchiveBackend serves layered zip/jar/tar/tgz/tbz2 URLs. The container is
// read through the Manager, so archives on any scheme can be browsed.
type ArchiveBackend struct {
	m      *Manager
	opened *expirable.LRU[string, openedArchive]
	debug  func(format string, args ...interface{})
}

// archiveCacheSize bounds the number of containers kept open.
const archiveCacheSize = 8

func NewArchiveBackend(m *Manager, debug func(string, ...interface{})) *ArchiveBackend {
	if debug == nil {
		debug = func(string, ...interface{}) {}
	}
	onEvict := func(_ string, a openedArchive) {
		if a.closer != nil {
			_ = a.closer.Close()
		}
	}
	return &ArchiveBackend{
		m:      m,
		opened: expirable.NewLRU[string, openedArchive](archiveCacheSize, onEvict, 5*time.Minute),
		debug:  debug,
	}
}

func (*ArchiveBackend) Schemes() []string {
	return []string{fileinfo.SchemeZip, fileinfo.SchemeJar, fileinfo.SchemeTar, fileinfo.SchemeTgz, fileinfo.SchemeTbz2}
}

// fsFor opens (or reuses) the archive filesystem of u's container.
func (b *ArchiveBackend) fsFor(ctx context.Context, u fileinfo.URLInfo) (fs.FS, error) {
	if u.Outer == nil {
		return nil, fmt.Errorf("%w: %s has no container", ErrNotArchive, u.Scheme)
	}
	key := u.Outer.String()
	if a, ok := b.opened.Get(key); ok {
		return a.fsys, nil
	}

	rc, err := b.m.openURL(ctx, *u.Outer)
	if err != nil {
		return nil, err
	}
	var stream archives.ReaderAtSeeker
	var closer io.Closer = rc
	if ras, ok := rc.(archives.ReaderAtSeeker); ok {
		stream = ras
	} else {
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
		stream, closer = bytes.NewReader(data), nil
	}

	// a background context: the filesystem outlives this call in the cache
	fsys, err := archives.FileSystem(context.Background(), u.Outer.BaseName(), stream)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	if _, ok := fsys.(*archives.ArchiveFS); !ok {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("%w: %s", ErrNotArchive, u.Outer.Friendly())
	}
	b.opened.Add(key, openedArchive{fsys: fsys, closer: closer})
	b.debug("vfs: opened archive %s", u.Outer.Friendly())
	return fsys, nil
}

// innerName converts an absolute inner path into an fs.FS name.
func innerName(p string) string {
	p = strings.TrimPrefix(path.Clean(p), "/")
	if p == "" {
		return "."
	}
	return p
}

func (b *ArchiveBackend) Stat(ctx context.Context, u fileinfo.URLInfo) (Entry, error) {
	fsys, err := b.fsFor(ctx, u)
	if err != nil {
		return Entry{}, err
	}
	if u.IsRoot() {
		return Entry{Name: u.BaseName(), Dir: true}, nil
	}
	fi, err := fs.Stat(fsys, innerName(u.Path))
	if err != nil {
		return Entry{}, err
	}
	return Entry{Name: fi.Name(), Dir: fi.IsDir(), Size: fi.Size(), Modified: fi.ModTime()}, nil
}

func (b *ArchiveBackend) List(ctx context.Context, u fileinfo.URLInfo) ([]Entry, error) {
	fsys, err := b.fsFor(ctx, u)
	if err != nil {
		return nil, err
	}
	des, err := fs.ReadDir(fsys, innerName(u.Path))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		e := Entry{Name: de.Name(), Dir: de.IsDir()}
		if fi, err := de.Info(); err == nil {
			e.Size = fi.Size()
			e.Modified = fi.ModTime()
		}
		out = append(out, e)
	}
	return out, nil
}

func (b *ArchiveBackend) Open(ctx context.Context, u fileinfo.URLInfo) (io.ReadCloser, error) {
	fsys, err := b.fsFor(ctx, u)
	if err != nil {
		return nil, err
	}
	f, err := fsys.Open(innerName(u.Path))
	if err != nil {
		return nil, err
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		_ = f.Close()
		return nil, &fs.PathError{Op: "open", Path: u.Path, Err: errors.New("is a directory")}
	}
	return f, nil
}

// Forget closes the cached container of u, if any.
func (b *ArchiveBackend) Forget(outerURL string) {
	b.opened.Remove(outerURL)
}

func (b *ArchiveBackend) Close() error {
	b.opened.Purge()
	return nil
}
