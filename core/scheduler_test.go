package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsPostedJobsInOrder(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for posted jobs")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoopScheduleFiresAfterDelay(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	fired := make(chan time.Time, 1)
	start := time.Now()
	l.Schedule(20*time.Millisecond, func() {
		fired <- time.Now()
	})

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 15*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestLoopScheduleCancel(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	ran := false
	id := l.Schedule(10*time.Millisecond, func() { ran = true })
	id.Cancel()

	// Schedule a no-op to fire after the cancelled timer would have
	// fired, and wait for it, to synchronize with the loop goroutine.
	sync := make(chan struct{})
	l.Schedule(40*time.Millisecond, func() { close(sync) })

	select {
	case <-sync:
	case <-time.After(time.Second):
		t.Fatal("sync timer never fired")
	}
	assert.False(t, ran)
}

func TestLoopReplacingTimerCancelsOld(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	var mu sync.Mutex
	fired := 0
	var id EventId

	replace := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		id.Cancel()
		id = l.Schedule(d, func() {
			mu.Lock()
			fired++
			mu.Unlock()
		})
	}

	replace(5 * time.Millisecond)
	replace(5 * time.Millisecond)
	replace(5 * time.Millisecond)

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, fired)
}
