package vfs

import (
	"time"
)

// DefaultOptions configures NewDefault.
type DefaultOptions struct {
	Options
	DialTimeout time.Duration
	KnownHosts  string
}

// NewDefault returns a Manager with every built-in backend registered: the
// host filesystem, sftp, ftp, smb, http(s) and archives.
func NewDefault(opts DefaultOptions) (*Manager, error) {
	m := NewManager(opts.Options)
	sftpBackend, err := NewSFTPBackend(m.auth, SFTPOptions{KnownHosts: opts.KnownHosts, DialTimeout: opts.DialTimeout}, m.debugPrint)
	if err != nil {
		return nil, err
	}
	m.Register(NewLocalBackend())
	m.Register(sftpBackend)
	m.Register(NewFTPBackend(m.auth, opts.DialTimeout, m.debugPrint))
	m.Register(NewSMBBackend(m.auth, opts.DialTimeout, m.debugPrint))
	m.Register(NewHTTPBackend(m.auth, opts.DialTimeout, m.debugPrint))
	m.Register(NewArchiveBackend(m, m.debugPrint))
	return m, nil
}
