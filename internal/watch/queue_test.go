package watch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueNeverRunsTwoRequestsAtOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue()
	var active, maxActive, runs int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx, func(ctx context.Context, _ Request) {
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			atomic.AddInt32(&runs, 1)
		})
	}()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				q.Submit(Request{Paths: []string{"scripts/popup.js"}})
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return !q.Pending() && atomic.LoadInt32(&active) == 0 }, 5*time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
	assert.Positive(t, atomic.LoadInt32(&runs))
	assert.Less(t, atomic.LoadInt32(&runs), int32(200))
}

func TestQueueCoalescesBurstIntoOneRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue()
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []Request

	go q.Run(ctx, func(ctx context.Context, req Request) {
		mu.Lock()
		seen = append(seen, req)
		first := len(seen) == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
	})

	q.Submit(Request{Paths: []string{"popup.html"}})
	<-started

	q.Submit(Request{Paths: []string{"styles/main.css"}})
	q.Submit(Request{Lint: true, Paths: []string{"scripts/popup.js"}})
	q.Submit(Request{Paths: []string{"styles/main.css"}})
	q.Submit(Request{Paths: []string{"manifest.json"}})
	assert.True(t, q.Pending())
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2 && !q.Pending()
	}, 5*time.Second, time.Millisecond)

	// Give a third run, which must not happen, a chance to show up.
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, Request{Paths: []string{"popup.html"}}, seen[0])
	assert.True(t, seen[1].Lint)
	assert.Equal(t, []string{"manifest.json", "scripts/popup.js", "styles/main.css"}, seen[1].Paths)
}

func TestQueueStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx, func(context.Context, Request) {})
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not stop")
	}
}

func TestRequestFor(t *testing.T) {
	assert.Equal(t, Request{Lint: true, Paths: []string{"scripts/a.js"}},
		RequestFor(FileEvent{Path: "scripts/a.js", Classes: []string{"scripts"}}))
	assert.Equal(t, Request{Paths: []string{"popup.html"}},
		RequestFor(FileEvent{Path: "popup.html", Classes: []string{"html"}}))
}
