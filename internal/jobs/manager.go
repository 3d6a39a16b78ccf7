package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Manager is a small worker pool running VFS work off the presentation
// thread. Finished jobs are kept in a bounded history.
type Manager struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       []*Job
	running     map[int64]*Job
	closed      bool
	nextID      int64
	subscribers []func()
	history     []*Job
	historyMax  int
	wg          sync.WaitGroup

	debugPrint func(format string, args ...interface{})
}

// NewManager constructs a Manager and starts workers goroutines.
func NewManager(workers int, debugPrint func(string, ...interface{})) *Manager {
	if workers < 1 {
		workers = 1
	}
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	m := &Manager{historyMax: 100, running: make(map[int64]*Job), debugPrint: debugPrint}
	m.cond = sync.NewCond(&m.mu)
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	m.dbg("manager created; %d workers started", workers)
	return m
}

func (m *Manager) dbg(format string, args ...interface{}) {
	m.debugPrint("jobs: "+format, args...)
}

// Subscribe registers a callback called on state changes.
func (m *Manager) Subscribe(cb func()) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, cb)
	m.mu.Unlock()
}

func (m *Manager) notify() {
	// call without holding the lock to avoid re-entrancy
	m.mu.Lock()
	subs := append([]func(){}, m.subscribers...)
	m.mu.Unlock()
	for _, cb := range subs {
		cb()
	}
}

// Submit enqueues fn. The returned job can be cancelled or waited on.
func (m *Manager) Submit(t Type, name, target string, fn Func) *Job {
	j := &Job{
		ID:         atomic.AddInt64(&m.nextID, 1),
		Type:       t,
		Name:       name,
		Target:     target,
		fn:         fn,
		Status:     StatusPending,
		EnqueuedAt: time.Now(),
		finished:   make(chan struct{}),
	}
	j.ctx, j.cancel = context.WithCancel(context.Background())

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		j.cancel()
		m.finish(j, context.Canceled)
		return j
	}
	m.queue = append(m.queue, j)
	m.mu.Unlock()
	m.dbg("enqueue id=%d type=%s %s", j.ID, t, target)
	m.notify()
	m.cond.Signal()
	return j
}

// Execute runs fn on a worker. It satisfies the navigator's Executor.
func (m *Manager) Execute(fn func()) {
	m.Submit(TypeTask, "", "", func(context.Context, *Job) error {
		fn()
		return nil
	})
}

// Cancel cancels a job by ID.
func (m *Manager) Cancel(id int64) bool {
	m.mu.Lock()
	for i, j := range m.queue {
		if j.ID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.mu.Unlock()
			j.Cancel()
			m.dbg("cancel pending id=%d", id)
			m.finish(j, context.Canceled)
			return true
		}
	}
	j, ok := m.running[id]
	m.mu.Unlock()
	if ok {
		j.Cancel()
		m.dbg("cancel running id=%d", id)
		go m.notify()
	}
	return ok
}

// List returns snapshots of running, pending and finished jobs, newest
// history first.
func (m *Manager) List() []JobSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]JobSnapshot, 0, len(m.running)+len(m.queue)+len(m.history))
	for _, j := range m.running {
		out = append(out, j.Snapshot())
	}
	for _, j := range m.queue {
		out = append(out, j.Snapshot())
	}
	for i := len(m.history) - 1; i >= 0; i-- {
		out = append(out, m.history[i].Snapshot())
	}
	return out
}

// Close cancels everything and waits for the workers to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	pending := m.queue
	m.queue = nil
	for _, j := range m.running {
		j.Cancel()
	}
	m.mu.Unlock()
	m.cond.Broadcast()
	for _, j := range pending {
		j.Cancel()
		m.finish(j, context.Canceled)
	}
	m.wg.Wait()
	m.dbg("manager closed")
}

func (m *Manager) worker(n int) {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			return
		}
		j := m.queue[0]
		m.queue = m.queue[1:]
		m.running[j.ID] = j
		m.mu.Unlock()

		j.mu.Lock()
		j.Status = StatusRunning
		j.StartedAt = time.Now()
		j.mu.Unlock()
		m.dbg("worker %d start id=%d type=%s", n, j.ID, j.Type)
		m.notify()

		err := m.run(j)

		m.mu.Lock()
		delete(m.running, j.ID)
		m.mu.Unlock()
		m.finish(j, err)
	}
}

// run executes the job body, turning a panic into a failure.
func (m *Manager) run(j *Job) (err error) {
	if j.ctx.Err() != nil {
		return context.Canceled
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %d panicked: %v", j.ID, r)
		}
	}()
	return j.fn(j.ctx, j)
}

func (m *Manager) finish(j *Job, err error) {
	j.mu.Lock()
	switch {
	case err == nil:
		j.Status = StatusCompleted
	case errors.Is(err, context.Canceled):
		j.Status = StatusCanceled
	default:
		j.Status = StatusFailed
		j.Error = err.Error()
	}
	j.CompletedAt = time.Now()
	status := j.Status
	j.mu.Unlock()
	close(j.finished)
	j.cancel()
	m.dbg("job %d %s", j.ID, status)

	m.mu.Lock()
	m.addHistoryLocked(j)
	m.mu.Unlock()
	m.notify()
}

// addHistoryLocked appends a finished job to history and trims oldest; caller must hold m.mu
func (m *Manager) addHistoryLocked(j *Job) {
	m.history = append(m.history, j)
	if m.historyMax > 0 && len(m.history) > m.historyMax {
		drop := len(m.history) - m.historyMax
		m.history = append([]*Job{}, m.history[drop:]...)
	}
}

// Copy streams src to dst, checking ctx between chunks and reporting the
// running byte count to the job.
func Copy(ctx context.Context, j *Job, dst io.Writer, src io.Reader, limit int64) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for limit <= 0 || written < limit {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		chunk := buf
		if limit > 0 && limit-written < int64(len(chunk)) {
			chunk = chunk[:limit-written]
		}
		n, rerr := src.Read(chunk)
		if n > 0 {
			if _, werr := dst.Write(chunk[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			if j != nil {
				j.SetMessage(fmt.Sprintf("%d bytes", written))
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
	return written, nil
}
