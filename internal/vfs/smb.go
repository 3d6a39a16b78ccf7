package vfs

import (
	"context"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hirochachacha/go-smb2"

	"vfsnav/internal/auth"
	"vfsnav/internal/constants"
	"vfsnav/internal/fileinfo"
)

const smbAttributeHidden = 0x02

// smbConn is one authenticated session with its mounted shares.
type smbConn struct {
	conn net.Conn
	sess *smb2.Session

	mu     sync.Mutex
	shares map[string]*smb2.Share
}

func (c *smbConn) mount(name string) (*smb2.Share, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.shares[name]; ok {
		return s, nil
	}
	s, err := c.sess.Mount(name)
	if err != nil {
		return nil, err
	}
	c.shares[name] = s
	return s, nil
}

func (c *smbConn) Close() error {
	c.mu.Lock()
	for _, s := range c.shares {
		_ = s.Umount()
	}
	c.shares = nil
	c.mu.Unlock()
	_ = c.sess.Logoff()
	return c.conn.Close()
}

// SMBBackend serves smb://host/share/path URLs. The host root lists the
// visible shares.
type SMBBackend struct {
	pool        *pool[*smbConn]
	dialTimeout time.Duration
}

func NewSMBBackend(a Authenticator, dialTimeout time.Duration, debug func(string, ...interface{})) *SMBBackend {
	if dialTimeout <= 0 {
		dialTimeout = constants.DialTimeout
	}
	b := &SMBBackend{dialTimeout: dialTimeout}
	b.pool = newPool(a, b.dial, debug)
	return b
}

func (*SMBBackend) Schemes() []string { return []string{fileinfo.SchemeSMB} }

func (b *SMBBackend) dial(ctx context.Context, u fileinfo.URLInfo, cred auth.Credential) (*smbConn, error) {
	port := u.Port
	if port == "" {
		port = constants.DefaultSMBPort
	}
	domain := cred.Domain
	if domain == "" {
		domain = u.Domain
	}
	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cred.User,
			Password: cred.Secret,
			Domain:   domain,
		},
	}
	nd := net.Dialer{Timeout: b.dialTimeout}
	conn, err := nd.DialContext(ctx, "tcp", net.JoinHostPort(u.Host, port))
	if err != nil {
		return nil, err
	}
	sess, err := d.DialContext(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &smbConn{conn: conn, sess: sess, shares: make(map[string]*smb2.Share)}, nil
}

// splitShare splits "/share/a/b" into "share" and the share-relative
// "a/b". go-smb2 rejects leading separators.
func splitShare(p string) (share, rel string) {
	p = strings.TrimLeft(p, "/\\")
	if p == "" {
		return "", ""
	}
	share, rel, _ = strings.Cut(p, "/")
	return share, strings.Trim(rel, "/")
}

func (b *SMBBackend) withShare(ctx context.Context, u fileinfo.URLInfo, fn func(*smbConn, *smb2.Share, string) error) error {
	c, err := b.pool.get(ctx, u)
	if err != nil {
		return err
	}
	name, rel := splitShare(u.Path)
	var share *smb2.Share
	if name != "" {
		share, err = c.mount(name)
		if err != nil {
			if transient(err) {
				b.pool.drop(u)
			}
			return err
		}
		share = share.WithContext(ctx)
	}
	if err := fn(c, share, rel); err != nil {
		if transient(err) {
			b.pool.drop(u)
		}
		return err
	}
	return nil
}

func (b *SMBBackend) Stat(ctx context.Context, u fileinfo.URLInfo) (Entry, error) {
	var e Entry
	err := b.withShare(ctx, u, func(_ *smbConn, share *smb2.Share, rel string) error {
		if share == nil || rel == "" {
			e = Entry{Name: u.BaseName(), Dir: true}
			return nil
		}
		fi, err := share.Stat(rel)
		if err != nil {
			return err
		}
		e = smbEntry(fi)
		return nil
	})
	return e, err
}

func (b *SMBBackend) List(ctx context.Context, u fileinfo.URLInfo) ([]Entry, error) {
	var out []Entry
	err := b.withShare(ctx, u, func(c *smbConn, share *smb2.Share, rel string) error {
		if share == nil {
			names, err := c.sess.ListSharenames()
			if err != nil {
				return err
			}
			for _, n := range names {
				// administrative shares (IPC$, C$) are not browsable
				if strings.HasSuffix(n, "$") {
					continue
				}
				out = append(out, Entry{Name: n, Dir: true})
			}
			return nil
		}
		infos, err := share.ReadDir(rel)
		if err != nil {
			return err
		}
		out = make([]Entry, 0, len(infos))
		for _, fi := range infos {
			if fi.Name() == "." {
				continue
			}
			out = append(out, smbEntry(fi))
		}
		return nil
	})
	return out, err
}

func (b *SMBBackend) Open(ctx context.Context, u fileinfo.URLInfo) (io.ReadCloser, error) {
	var f *smb2.File
	err := b.withShare(ctx, u, func(_ *smbConn, share *smb2.Share, rel string) error {
		if share == nil || rel == "" {
			return &os.PathError{Op: "open", Path: u.Path, Err: os.ErrInvalid}
		}
		var err error
		f, err = share.Open(rel)
		return err
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (b *SMBBackend) Close() error { return b.pool.Close() }

func smbEntry(fi os.FileInfo) Entry {
	e := Entry{
		Name:     fi.Name(),
		Dir:      fi.IsDir(),
		Size:     fi.Size(),
		Modified: fi.ModTime(),
		Symlink:  fi.Mode()&os.ModeSymlink != 0,
	}
	if st, ok := fi.(*smb2.FileStat); ok {
		e.Hidden = st.FileAttributes&smbAttributeHidden != 0
	}
	return e
}
