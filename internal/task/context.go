// Package task provides the cancellable progress handle shared between a
// background worker and its observers.
package task

import (
	"context"
	"sync/atomic"
	"time"
)

// Context is a progress handle with one writer and any number of readers.
// All fields are atomics, so readers see what the writer published.
type Context struct {
	name          string
	indeterminate atomic.Bool
	current       atomic.Int64
	max           atomic.Int64
	stop          atomic.Bool
	done          chan struct{}
}

// Progress is a point-in-time view of a Context.
type Progress struct {
	Name          string
	Current       int64
	Max           int64
	Indeterminate bool
	Stopped       bool
}

// New creates a determinate task with the given maximum.
func New(name string, max int64) *Context {
	c := &Context{name: name, done: make(chan struct{})}
	c.max.Store(max)
	return c
}

// NewIndeterminate creates a task without a known size.
func NewIndeterminate(name string) *Context {
	c := New(name, 0)
	c.indeterminate.Store(true)
	return c
}

func (c *Context) Name() string { return c.name }

// SetStop raises the stop flag. It is one-way: false never clears it.
func (c *Context) SetStop(stop bool) {
	if !stop {
		return
	}
	if c.stop.CompareAndSwap(false, true) {
		close(c.done)
	}
}

// Stopped reports whether the stop flag is set.
func (c *Context) Stopped() bool { return c.stop.Load() }

// Done is closed when the stop flag is raised.
func (c *Context) Done() <-chan struct{} { return c.done }

// Advance adds n to the current progress and returns the new value.
func (c *Context) Advance(n int64) int64 { return c.current.Add(n) }

// Snapshot reads every field.
func (c *Context) Snapshot() Progress {
	return Progress{
		Name:          c.name,
		Current:       c.current.Load(),
		Max:           c.max.Load(),
		Indeterminate: c.indeterminate.Load(),
		Stopped:       c.stop.Load(),
	}
}

// Complete reports whether a determinate task reached its maximum.
func (p Progress) Complete() bool {
	return !p.Indeterminate && p.Current >= p.Max
}

// Poll calls fn with a snapshot every interval until the task stops, ctx is
// done, or fn returns false. A final snapshot is always delivered.
func (c *Context) Poll(ctx context.Context, interval time.Duration, fn func(Progress) bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fn(c.Snapshot())
			return
		case <-c.done:
			fn(c.Snapshot())
			return
		case <-ticker.C:
			if !fn(c.Snapshot()) {
				return
			}
		}
	}
}

// Link returns a context cancelled when the task stops or parent is done.
func (c *Context) Link(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
