package auth

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	apperrors "vfsnav/internal/errors"
)

// ErrPromptCancelled is returned by a Prompter when the user declines.
var ErrPromptCancelled = errors.New("credential prompt cancelled")

// Resolver produces a credential for a request. ok=false without an error
// means "not mine, ask the next resolver".
type Resolver interface {
	Resolve(ctx context.Context, req Request) (cred Credential, ok bool, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, req Request) (Credential, bool, error)

func (f ResolverFunc) Resolve(ctx context.Context, req Request) (Credential, bool, error) {
	return f(ctx, req)
}

// storeResolver returns the first credential stored for (scheme, host),
// preferring one for the requested user. Credentials for which skip
// reports true are passed over.
type storeResolver struct {
	store Store
	skip  func(Credential) bool
}

func (r storeResolver) Resolve(_ context.Context, req Request) (Credential, bool, error) {
	if r.store == nil || req.Host == "" {
		return Credential{}, false, nil
	}
	var creds []Credential
	for _, c := range r.store.Lookup(req.Scheme, req.Host) {
		if r.skip == nil || !r.skip(c) {
			creds = append(creds, c)
		}
	}
	if len(creds) == 0 {
		return Credential{}, false, nil
	}
	if req.User != "" {
		for _, c := range creds {
			if c.User == req.User {
				return c, true, nil
			}
		}
	}
	return creds[0], true, nil
}

// Prompter asks the user for a credential. It is always invoked on the
// presentation thread. save reports the "remember" choice.
type Prompter interface {
	PromptCredential(req Request) (cred Credential, save bool, err error)
}

// PromptResolver runs the Prompter on the presentation thread via post and
// blocks the calling worker until it answers.
type PromptResolver struct {
	Prompter Prompter
	Post     func(func())
}

func (r PromptResolver) Resolve(ctx context.Context, req Request) (Credential, bool, error) {
	if r.Prompter == nil {
		return Credential{}, false, nil
	}
	type answer struct {
		cred Credential
		save bool
		err  error
	}
	done := make(chan answer, 1)
	ask := func() {
		c, save, err := r.Prompter.PromptCredential(req)
		done <- answer{cred: c, save: save, err: err}
	}
	if r.Post != nil {
		r.Post(ask)
	} else {
		go ask()
	}

	select {
	case a := <-done:
		if a.err != nil {
			return Credential{}, false, a.err
		}
		a.cred.Scheme, a.cred.Host = req.Scheme, req.Host
		a.cred.Save = a.save
		return a.cred, true, nil
	case <-ctx.Done():
		return Credential{}, false, ctx.Err()
	}
}

// Chain tries its resolvers in order: session, persistent, prompt.
type Chain struct {
	session    Store
	persistent Store
	resolvers  []Resolver
	stored     int // leading resolvers backed by a Store
	flight     singleflight.Group

	mu sync.Mutex
	// rejected holds credentials a server refused, keyed by rejectKey.
	// The store resolvers skip them so a stale saved password falls
	// through to the prompt instead of being retried.
	rejected map[string]Credential

	debugPrint func(format string, args ...interface{})
}

// NewChain wires the standard resolution order. persistent and prompt may be nil.
func NewChain(session, persistent Store, prompt Resolver, debugPrint func(string, ...interface{})) *Chain {
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	c := &Chain{session: session, persistent: persistent, rejected: make(map[string]Credential), debugPrint: debugPrint}
	c.resolvers = append(c.resolvers, storeResolver{store: session, skip: c.isRejected})
	if persistent != nil {
		c.resolvers = append(c.resolvers, storeResolver{store: persistent, skip: c.isRejected})
	}
	c.stored = len(c.resolvers)
	if prompt != nil {
		c.resolvers = append(c.resolvers, prompt)
	}
	return c
}

// Authenticate resolves a credential for req. Concurrent calls for the same
// server share one resolution so the user is prompted at most once. The
// shared resolution outlives any single caller; each caller stops waiting
// when its own ctx is done.
func (c *Chain) Authenticate(ctx context.Context, req Request) (Credential, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(req.flightKey(), func() (interface{}, error) {
		return c.resolve(shared, req)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return Credential{}, r.Err
		}
		return r.Val.(Credential), nil
	case <-ctx.Done():
		c.debugPrint("auth: %s caller gave up: %v", req.URL, ctx.Err())
		if errors.Is(ctx.Err(), context.Canceled) {
			return Credential{}, apperrors.NewAuthCancelled(req.URL)
		}
		return Credential{}, apperrors.NewAuthFailed(req.URL, ctx.Err())
	}
}

func (c *Chain) resolve(ctx context.Context, req Request) (Credential, error) {
	for i, r := range c.resolvers {
		cred, ok, err := r.Resolve(ctx, req)
		if err != nil {
			if errors.Is(err, ErrPromptCancelled) || errors.Is(err, context.Canceled) {
				c.debugPrint("auth: %s cancelled at step %d", req.URL, i)
				return Credential{}, apperrors.NewAuthCancelled(req.URL)
			}
			return Credential{}, apperrors.NewAuthFailed(req.URL, err)
		}
		if !ok {
			continue
		}
		c.debugPrint("auth: %s resolved at step %d user=%s", req.URL, i, cred.User)
		if i < c.stored {
			c.addSession(cred)
		} else {
			c.remember(cred)
		}
		return cred, nil
	}
	return Credential{}, apperrors.NewAuthCancelled(req.URL)
}

func (c *Chain) addSession(cred Credential) {
	if c.session != nil {
		_ = c.session.Add(cred)
	}
}

// remember stores a freshly entered credential into the session, and into
// the persistent store only when it asks for it. Rejected saved
// credentials for that server are evicted.
func (c *Chain) remember(cred Credential) {
	c.mu.Lock()
	delete(c.rejected, rejectKey(cred))
	c.mu.Unlock()
	c.addSession(cred)
	if !cred.Save || c.persistent == nil {
		return
	}
	for _, stale := range c.persistent.Lookup(cred.Scheme, cred.Host) {
		if stale.Equal(cred) || !c.isRejected(stale) {
			continue
		}
		if err := c.persistent.Remove(stale); err != nil {
			c.debugPrint("auth: evicting stale credential for %s failed: %v", cred.Host, err)
		}
	}
	if err := c.persistent.Add(cred); err != nil {
		c.debugPrint("auth: persisting credential for %s failed: %v", cred.Host, err)
	}
}

// Seed records a credential that arrived with the URL itself.
func (c *Chain) Seed(cred Credential) {
	cred.Save = false
	c.mu.Lock()
	delete(c.rejected, rejectKey(cred))
	c.mu.Unlock()
	c.addSession(cred)
}

// Reject evicts a credential the server refused from the session store and
// keeps the stores from offering it again.
func (c *Chain) Reject(cred Credential) {
	if c.session != nil {
		_ = c.session.Remove(cred)
	}
	c.mu.Lock()
	c.rejected[rejectKey(cred)] = cred
	c.mu.Unlock()
	c.debugPrint("auth: rejected credential for %s user=%s", cred.Host, cred.User)
}

func (c *Chain) isRejected(cred Credential) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rejected[rejectKey(cred)]
	return ok
}

func rejectKey(c Credential) string {
	return c.storeKey() + "\x00" + c.Domain + "\x00" + c.User + "\x00" + c.Secret
}

// Stores exposes the session and persistent stores.
func (c *Chain) Stores() (session, persistent Store) { return c.session, c.persistent }
