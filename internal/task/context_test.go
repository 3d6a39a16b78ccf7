package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopIsOneWay(t *testing.T) {
	c := New("checking links", 3)
	assert.False(t, c.Stopped())

	c.SetStop(true)
	c.SetStop(true)
	c.SetStop(false)
	assert.True(t, c.Stopped())

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after stop")
	}
}

func TestSnapshot(t *testing.T) {
	c := New("checking links", 4)
	c.Advance(1)
	c.Advance(2)
	p := c.Snapshot()
	assert.Equal(t, Progress{Name: "checking links", Current: 3, Max: 4}, p)
	assert.False(t, p.Complete())

	c.Advance(1)
	assert.True(t, c.Snapshot().Complete())

	ind := NewIndeterminate("listing")
	assert.True(t, ind.Snapshot().Indeterminate)
	assert.False(t, ind.Snapshot().Complete())
}

func TestConcurrentAdvance(t *testing.T) {
	c := New("n", 100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Advance(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 100, c.Snapshot().Current)
}

func TestPollStopsWithTask(t *testing.T) {
	c := New("n", 10)
	var mu sync.Mutex
	var seen []Progress
	done := make(chan struct{})
	go func() {
		c.Poll(context.Background(), 5*time.Millisecond, func(p Progress) bool {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
			return true
		})
		close(done)
	}()

	c.Advance(5)
	time.Sleep(20 * time.Millisecond)
	c.SetStop(true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not return after stop")
	}
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.True(t, seen[len(seen)-1].Stopped)
}

func TestLinkCancelsOnStop(t *testing.T) {
	c := New("n", 1)
	ctx, cancel := c.Link(context.Background())
	defer cancel()

	c.SetStop(true)
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("linked context not cancelled")
	}
}
