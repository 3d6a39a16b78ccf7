package vfs

import (
	"context"
	"io"
	"time"

	"vfsnav/internal/auth"
	"vfsnav/internal/fileinfo"
)

// Entry is the metadata a backend reports for one node.
type Entry struct {
	Name     string
	Dir      bool
	Size     int64
	Modified time.Time
	Hidden   bool
	Symlink  bool
}

// Backend serves one family of URL schemes. Paths in URLInfo are absolute
// and decoded.
type Backend interface {
	Schemes() []string
	Stat(ctx context.Context, u fileinfo.URLInfo) (Entry, error)
	List(ctx context.Context, u fileinfo.URLInfo) ([]Entry, error)
	Open(ctx context.Context, u fileinfo.URLInfo) (io.ReadCloser, error)
}

// LinkReader is implemented by backends that expose symbolic links.
// Readlink returns the target as an absolute path on the same server.
type LinkReader interface {
	Readlink(ctx context.Context, u fileinfo.URLInfo) (string, error)
}

// Authenticator supplies credentials to remote backends. *auth.Chain
// implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, req auth.Request) (auth.Credential, error)
	Reject(cred auth.Credential)
	Seed(cred auth.Credential)
}

type noAuth struct{}

func (noAuth) Authenticate(_ context.Context, req auth.Request) (auth.Credential, error) {
	return auth.Credential{Scheme: req.Scheme, Host: req.Host, User: req.User}, nil
}
func (noAuth) Reject(auth.Credential) {}
func (noAuth) Seed(auth.Credential)   {}
