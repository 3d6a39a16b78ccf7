package vfs

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"vfsnav/internal/fileinfo"
)

// LocalBackend serves file:// URLs from an afero filesystem.
type LocalBackend struct {
	fs afero.Fs
	// hiddenAttr consults platform attributes; only meaningful on an OsFs.
	hiddenAttr func(path string) bool
}

// NewLocalBackend serves the host filesystem.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{fs: afero.NewOsFs(), hiddenAttr: isHiddenAttr}
}

// NewLocalBackendFs serves an arbitrary afero filesystem (tests use MemMapFs).
func NewLocalBackendFs(fs afero.Fs) *LocalBackend {
	return &LocalBackend{fs: fs, hiddenAttr: func(string) bool { return false }}
}

func (*LocalBackend) Schemes() []string { return []string{fileinfo.SchemeFile} }

func (b *LocalBackend) Stat(_ context.Context, u fileinfo.URLInfo) (Entry, error) {
	p := u.NativePath()
	fi, err := b.lstat(p)
	if err != nil {
		return Entry{}, err
	}
	return b.entry(p, fi), nil
}

func (b *LocalBackend) List(ctx context.Context, u fileinfo.URLInfo) ([]Entry, error) {
	dir := u.NativePath()
	infos, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out = append(out, b.entry(filepath.Join(dir, fi.Name()), fi))
	}
	return out, nil
}

func (b *LocalBackend) Open(_ context.Context, u fileinfo.URLInfo) (io.ReadCloser, error) {
	return b.fs.Open(u.NativePath())
}

// Readlink returns the slash-separated link target.
func (b *LocalBackend) Readlink(_ context.Context, u fileinfo.URLInfo) (string, error) {
	lr, ok := b.fs.(afero.LinkReader)
	if !ok {
		return "", &os.PathError{Op: "readlink", Path: u.Path, Err: afero.ErrNoReadlink}
	}
	target, err := lr.ReadlinkIfPossible(u.NativePath())
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(target), nil
}

func (b *LocalBackend) lstat(p string) (os.FileInfo, error) {
	if ls, ok := b.fs.(afero.Lstater); ok {
		fi, _, err := ls.LstatIfPossible(p)
		return fi, err
	}
	return b.fs.Stat(p)
}

// entry converts fi. Symlinks report the type of their target; the link
// itself stays visible through Symlink.
func (b *LocalBackend) entry(p string, fi os.FileInfo) Entry {
	e := Entry{
		Name:     fi.Name(),
		Dir:      fi.IsDir(),
		Size:     fi.Size(),
		Modified: fi.ModTime(),
		Hidden:   b.hiddenAttr(p),
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		e.Symlink = true
		if target, err := b.fs.Stat(p); err == nil {
			e.Dir = target.IsDir()
			e.Size = target.Size()
		}
	}
	return e
}
