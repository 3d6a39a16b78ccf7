package vfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/textproto"
	"path"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"

	"vfsnav/internal/auth"
	"vfsnav/internal/constants"
	"vfsnav/internal/fileinfo"
)

const anonymousUser = "anonymous"

// ftpConn serializes commands; a ServerConn handles one at a time.
type ftpConn struct {
	mu sync.Mutex
	c  *ftp.ServerConn
}

func (c *ftpConn) Close() error { return c.c.Quit() }

// FTPBackend serves ftp:// URLs. Servers are tried anonymously first when
// the URL names no user.
type FTPBackend struct {
	pool        *pool[*ftpConn]
	dialTimeout time.Duration

	mu         sync.Mutex
	anonDenied map[string]bool
}

func NewFTPBackend(a Authenticator, dialTimeout time.Duration, debug func(string, ...interface{})) *FTPBackend {
	if dialTimeout <= 0 {
		dialTimeout = constants.DialTimeout
	}
	b := &FTPBackend{dialTimeout: dialTimeout, anonDenied: make(map[string]bool)}
	b.pool = newPool(a, b.dial, debug)
	return b
}

func (*FTPBackend) Schemes() []string { return []string{fileinfo.SchemeFTP} }

func (b *FTPBackend) dial(ctx context.Context, u fileinfo.URLInfo, cred auth.Credential) (*ftpConn, error) {
	port := u.Port
	if port == "" {
		port = constants.DefaultFTPPort
	}
	c, err := ftp.Dial(net.JoinHostPort(u.Host, port),
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(b.dialTimeout),
	)
	if err != nil {
		return nil, err
	}
	user, pass := cred.User, cred.Secret
	if user == "" {
		user, pass = anonymousUser, anonymousUser
	}
	if err := c.Login(user, pass); err != nil {
		_ = c.Quit()
		return nil, err
	}
	return &ftpConn{c: c}, nil
}

func (b *FTPBackend) conn(ctx context.Context, u fileinfo.URLInfo) (*ftpConn, error) {
	if u.User == "" && !b.pool.has(u) && !b.isAnonDenied(u) {
		c, err := b.dial(ctx, u, auth.Credential{})
		if err == nil {
			return b.pool.put(u, c), nil
		}
		if !isLoginError(err) {
			return nil, err
		}
		b.mu.Lock()
		b.anonDenied[u.HostKey()] = true
		b.mu.Unlock()
	}
	return b.pool.get(ctx, u)
}

func (b *FTPBackend) isAnonDenied(u fileinfo.URLInfo) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.anonDenied[u.HostKey()]
}

func (b *FTPBackend) do(ctx context.Context, u fileinfo.URLInfo, fn func(*ftp.ServerConn) error) error {
	c, err := b.conn(ctx, u)
	if err != nil {
		return err
	}
	c.mu.Lock()
	err = fn(c.c)
	c.mu.Unlock()
	if err != nil {
		err = ftpError(err)
		if transient(err) {
			b.pool.drop(u)
		}
	}
	return err
}

func (b *FTPBackend) Stat(ctx context.Context, u fileinfo.URLInfo) (Entry, error) {
	if u.IsRoot() {
		return Entry{Name: "/", Dir: true}, nil
	}
	var e Entry
	err := b.do(ctx, u, func(c *ftp.ServerConn) error {
		if entry, err := c.GetEntry(u.Path); err == nil {
			e = ftpEntry(entry)
			e.Name = path.Base(u.Path)
			return nil
		}
		// no MLST: find the name in the parent listing
		entries, err := c.List(path.Dir(u.Path))
		if err != nil {
			return err
		}
		name := path.Base(u.Path)
		for _, entry := range entries {
			if entry.Name == name {
				e = ftpEntry(entry)
				return nil
			}
		}
		return fs.ErrNotExist
	})
	return e, err
}

func (b *FTPBackend) List(ctx context.Context, u fileinfo.URLInfo) ([]Entry, error) {
	var out []Entry
	err := b.do(ctx, u, func(c *ftp.ServerConn) error {
		entries, err := c.List(u.Path)
		if err != nil {
			return err
		}
		out = make([]Entry, 0, len(entries))
		for _, entry := range entries {
			out = append(out, ftpEntry(entry))
		}
		return nil
	})
	return out, err
}

// Open holds the connection until the returned reader is closed.
func (b *FTPBackend) Open(ctx context.Context, u fileinfo.URLInfo) (io.ReadCloser, error) {
	c, err := b.conn(ctx, u)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	resp, err := c.c.Retr(u.Path)
	if err != nil {
		c.mu.Unlock()
		err = ftpError(err)
		if transient(err) {
			b.pool.drop(u)
		}
		return nil, err
	}
	return &ftpReader{Response: resp, unlock: c.mu.Unlock}, nil
}

func (b *FTPBackend) Close() error { return b.pool.Close() }

type ftpReader struct {
	*ftp.Response
	once   sync.Once
	unlock func()
}

func (r *ftpReader) Close() error {
	err := r.Response.Close()
	r.once.Do(r.unlock)
	return err
}

func ftpEntry(e *ftp.Entry) Entry {
	return Entry{
		Name:     e.Name,
		Dir:      e.Type == ftp.EntryTypeFolder,
		Size:     int64(e.Size),
		Modified: e.Time,
		Symlink:  e.Type == ftp.EntryTypeLink,
	}
}

// ftpError maps reply codes onto the fs sentinels.
func ftpError(err error) error {
	var te *textproto.Error
	if !errors.As(err, &te) {
		return err
	}
	switch te.Code {
	case ftp.StatusFileUnavailable:
		return &fs.PathError{Op: "ftp", Path: te.Msg, Err: fs.ErrNotExist}
	case ftp.StatusNotLoggedIn:
		return &fs.PathError{Op: "ftp", Path: te.Msg, Err: fs.ErrPermission}
	}
	return err
}

func isLoginError(err error) bool {
	var te *textproto.Error
	return errors.As(err, &te) && te.Code == ftp.StatusNotLoggedIn
}
