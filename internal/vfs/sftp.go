package vfs

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"vfsnav/internal/auth"
	"vfsnav/internal/constants"
	"vfsnav/internal/fileinfo"
)

type sftpConn struct {
	ssh    *ssh.Client
	client *sftp.Client
}

func (c *sftpConn) Close() error {
	_ = c.client.Close()
	return c.ssh.Close()
}

// SFTPBackend serves sftp:// URLs over pooled SSH connections.
type SFTPBackend struct {
	pool        *pool[*sftpConn]
	hostKey     ssh.HostKeyCallback
	dialTimeout time.Duration
}

// SFTPOptions configures host key checking. With KnownHosts set, hosts are
// verified against that file; otherwise every host key is accepted.
type SFTPOptions struct {
	KnownHosts  string
	DialTimeout time.Duration
}

func NewSFTPBackend(a Authenticator, opts SFTPOptions, debug func(string, ...interface{})) (*SFTPBackend, error) {
	b := &SFTPBackend{hostKey: ssh.InsecureIgnoreHostKey(), dialTimeout: opts.DialTimeout}
	if b.dialTimeout <= 0 {
		b.dialTimeout = constants.DialTimeout
	}
	if opts.KnownHosts != "" {
		cb, err := knownhosts.New(opts.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		b.hostKey = cb
	}
	b.pool = newPool(a, b.dial, debug)
	return b, nil
}

func (*SFTPBackend) Schemes() []string { return []string{fileinfo.SchemeSFTP} }

func (b *SFTPBackend) dial(ctx context.Context, u fileinfo.URLInfo, cred auth.Credential) (*sftpConn, error) {
	port := u.Port
	if port == "" {
		port = constants.DefaultSFTPPort
	}
	addr := net.JoinHostPort(u.Host, port)
	cfg := &ssh.ClientConfig{
		User: cred.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cred.Secret),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = cred.Secret
				}
				return answers, nil
			}),
		},
		HostKeyCallback: b.hostKey,
		Timeout:         b.dialTimeout,
	}

	d := net.Dialer{Timeout: b.dialTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	sc, chans, reqs, err := ssh.NewClientConn(raw, addr, cfg)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	client := ssh.NewClient(sc, chans, reqs)
	sf, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &sftpConn{ssh: client, client: sf}, nil
}

// do runs fn on the pooled client and drops the connection on transport
// errors.
func (b *SFTPBackend) do(ctx context.Context, u fileinfo.URLInfo, fn func(*sftp.Client) error) error {
	c, err := b.pool.get(ctx, u)
	if err != nil {
		return err
	}
	if err := fn(c.client); err != nil {
		if transient(err) {
			b.pool.drop(u)
		}
		return err
	}
	return nil
}

func (b *SFTPBackend) Stat(ctx context.Context, u fileinfo.URLInfo) (Entry, error) {
	var e Entry
	err := b.do(ctx, u, func(c *sftp.Client) error {
		fi, err := c.Lstat(u.Path)
		if err != nil {
			return err
		}
		e = sftpEntry(fi)
		if e.Symlink {
			if target, err := c.Stat(u.Path); err == nil {
				e.Dir = target.IsDir()
			}
		}
		return nil
	})
	return e, err
}

// List reports symlinks as-is; their targets are resolved by the link probe.
func (b *SFTPBackend) List(ctx context.Context, u fileinfo.URLInfo) ([]Entry, error) {
	var out []Entry
	err := b.do(ctx, u, func(c *sftp.Client) error {
		infos, err := c.ReadDir(u.Path)
		if err != nil {
			return err
		}
		out = make([]Entry, 0, len(infos))
		for _, fi := range infos {
			out = append(out, sftpEntry(fi))
		}
		return nil
	})
	return out, err
}

func (b *SFTPBackend) Open(ctx context.Context, u fileinfo.URLInfo) (io.ReadCloser, error) {
	var f *sftp.File
	err := b.do(ctx, u, func(c *sftp.Client) error {
		var err error
		f, err = c.Open(u.Path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (b *SFTPBackend) Readlink(ctx context.Context, u fileinfo.URLInfo) (string, error) {
	var target string
	err := b.do(ctx, u, func(c *sftp.Client) error {
		var err error
		target, err = c.ReadLink(u.Path)
		return err
	})
	return target, err
}

func (b *SFTPBackend) Close() error { return b.pool.Close() }

func sftpEntry(fi os.FileInfo) Entry {
	return Entry{
		Name:     fi.Name(),
		Dir:      fi.IsDir(),
		Size:     fi.Size(),
		Modified: fi.ModTime(),
		Symlink:  fi.Mode()&os.ModeSymlink != 0,
	}
}
