package jobs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitCompletes(t *testing.T) {
	m := NewManager(2, t.Logf)
	defer m.Close()

	j := m.Submit(TypeList, "list", "file:///tmp", func(ctx context.Context, j *Job) error {
		j.SetProgress(3, 3)
		return nil
	})
	if err := j.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	s := j.Snapshot()
	if s.Status != StatusCompleted || s.Done != 3 || !s.Finished() {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestSubmitFailureAndPanic(t *testing.T) {
	m := NewManager(1, nil)
	defer m.Close()

	failed := m.Submit(TypeTask, "", "", func(context.Context, *Job) error { return errors.New("boom") })
	if err := failed.Wait(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("want boom, got %v", err)
	}

	panicked := m.Submit(TypeTask, "", "", func(context.Context, *Job) error { panic("oops") })
	_ = panicked.Wait(context.Background())
	if s := panicked.Snapshot(); s.Status != StatusFailed || !strings.Contains(s.Error, "oops") {
		t.Fatalf("panic not recorded: %+v", s)
	}
}

func TestCancelRunning(t *testing.T) {
	m := NewManager(1, nil)
	defer m.Close()

	started := make(chan struct{})
	j := m.Submit(TypeProbe, "probe", "", func(ctx context.Context, _ *Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	if !m.Cancel(j.ID) {
		t.Fatal("Cancel returned false for running job")
	}
	if err := j.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
}

func TestCancelPending(t *testing.T) {
	m := NewManager(1, nil)
	defer m.Close()

	block := make(chan struct{})
	m.Submit(TypeTask, "", "", func(context.Context, *Job) error { <-block; return nil })
	var ran atomic.Bool
	pending := m.Submit(TypeTask, "", "", func(context.Context, *Job) error { ran.Store(true); return nil })

	if !m.Cancel(pending.ID) {
		t.Fatal("Cancel returned false for pending job")
	}
	close(block)
	_ = pending.Wait(context.Background())
	if ran.Load() {
		t.Fatal("cancelled pending job ran")
	}
	if pending.Snapshot().Status != StatusCanceled {
		t.Fatalf("status = %s", pending.Snapshot().Status)
	}
}

func TestExecuteAndSubscribe(t *testing.T) {
	m := NewManager(2, nil)
	defer m.Close()
	var notified atomic.Int32
	m.Subscribe(func() { notified.Add(1) })

	done := make(chan struct{})
	m.Execute(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Execute did not run")
	}
	deadline := time.Now().Add(time.Second)
	for notified.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if notified.Load() == 0 {
		t.Fatal("subscriber never notified")
	}
	if len(m.List()) == 0 {
		t.Fatal("List is empty")
	}
}

func TestCloseCancelsAndRejects(t *testing.T) {
	m := NewManager(1, nil)
	started := make(chan struct{})
	running := m.Submit(TypeTask, "", "", func(ctx context.Context, _ *Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	m.Close()
	if running.Snapshot().Status != StatusCanceled {
		t.Fatalf("running job status = %s", running.Snapshot().Status)
	}
	late := m.Submit(TypeTask, "", "", func(context.Context, *Job) error { return nil })
	if late.Snapshot().Status != StatusCanceled {
		t.Fatalf("job submitted after Close = %s", late.Snapshot().Status)
	}
}

func TestCopyLimit(t *testing.T) {
	var dst bytes.Buffer
	n, err := Copy(context.Background(), nil, &dst, strings.NewReader("hello world"), 5)
	if err != nil || n != 5 || dst.String() != "hello" {
		t.Fatalf("Copy = %d, %v, %q", n, err, dst.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Copy(ctx, nil, &dst, strings.NewReader("x"), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
}
