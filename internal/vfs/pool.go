package vfs

import (
	"context"
	"errors"
	"io"
	"sync"

	"vfsnav/internal/auth"
	"vfsnav/internal/fileinfo"
)

const maxAuthAttempts = 3

// pool keeps one live connection per server and user. Connections are
// created through dial, which receives the resolved credential.
type pool[C io.Closer] struct {
	mu    sync.Mutex
	conns map[string]C
	auth  Authenticator
	dial  func(ctx context.Context, u fileinfo.URLInfo, cred auth.Credential) (C, error)
	debug func(format string, args ...interface{})
}

func newPool[C io.Closer](a Authenticator, dial func(context.Context, fileinfo.URLInfo, auth.Credential) (C, error), debug func(string, ...interface{})) *pool[C] {
	if a == nil {
		a = noAuth{}
	}
	if debug == nil {
		debug = func(string, ...interface{}) {}
	}
	return &pool[C]{conns: make(map[string]C), auth: a, dial: dial, debug: debug}
}

func poolKey(u fileinfo.URLInfo) string {
	return u.HostKey() + "|" + u.User
}

// get returns the pooled connection for u, dialing with credentials from
// the authenticator. Rejected credentials are reported and the chain is
// asked again, a bounded number of times.
func (p *pool[C]) get(ctx context.Context, u fileinfo.URLInfo) (C, error) {
	key := poolKey(u)
	p.mu.Lock()
	if c, ok := p.conns[key]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	var zero C
	var lastErr error
	for attempt := 0; attempt < maxAuthAttempts; attempt++ {
		cred, err := p.auth.Authenticate(ctx, auth.RequestFor(u))
		if err != nil {
			return zero, err
		}
		c, err := p.dial(ctx, u, cred)
		if err == nil {
			p.mu.Lock()
			if existing, ok := p.conns[key]; ok {
				p.mu.Unlock()
				_ = c.Close()
				return existing, nil
			}
			p.conns[key] = c
			p.mu.Unlock()
			p.debug("vfs: connected %s as %q", u.HostKey(), cred.User)
			return c, nil
		}
		lastErr = err
		if !isAuthError(err) || ctx.Err() != nil {
			return zero, err
		}
		p.debug("vfs: credential for %s rejected (attempt %d): %v", u.HostKey(), attempt+1, err)
		p.auth.Reject(cred)
	}
	return zero, &Error{Kind: KindNotAuthorized, Op: "connect", URL: u.Friendly(), Err: lastErr}
}

// put stores an already established connection, closing c when another
// one won the race.
func (p *pool[C]) put(u fileinfo.URLInfo, c C) C {
	key := poolKey(u)
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.conns[key]; ok {
		_ = c.Close()
		return existing
	}
	p.conns[key] = c
	return c
}

// has reports whether a connection for u is pooled.
func (p *pool[C]) has(u fileinfo.URLInfo) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.conns[poolKey(u)]
	return ok
}

// drop closes and forgets the connection for u after a transport error.
func (p *pool[C]) drop(u fileinfo.URLInfo) {
	key := poolKey(u)
	p.mu.Lock()
	c, ok := p.conns[key]
	delete(p.conns, key)
	p.mu.Unlock()
	if ok {
		_ = c.Close()
		p.debug("vfs: dropped connection %s", u.HostKey())
	}
}

// Close closes every pooled connection.
func (p *pool[C]) Close() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]C)
	p.mu.Unlock()
	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// transient reports errors after which a pooled connection is suspect.
func transient(err error) bool {
	if err == nil {
		return false
	}
	switch classify(err) {
	case KindNotFound, KindNotAuthorized:
		return false
	}
	return true
}
