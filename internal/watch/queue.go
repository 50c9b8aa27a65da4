package watch

import (
	"context"
	"sort"
	"sync"
)

// Request asks for one pipeline run.
type Request struct {
	// Lint runs the static analysis gate before the build.
	Lint bool
	// Paths are the changes that triggered the run.
	Paths []string
}

// merge folds other into r.
func (r *Request) merge(other Request) {
	r.Lint = r.Lint || other.Lint
	seen := make(map[string]bool, len(r.Paths))
	for _, p := range r.Paths {
		seen[p] = true
	}
	for _, p := range other.Paths {
		if !seen[p] {
			seen[p] = true
			r.Paths = append(r.Paths, p)
		}
	}
	sort.Strings(r.Paths)
}

// Queue is a single-slot run queue. At most one request runs at a time;
// requests submitted meanwhile fold into one pending request.
type Queue struct {
	mu      sync.Mutex
	pending *Request
	wake    chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Submit adds req, merging it into the pending request if there is one.
// It never blocks.
func (q *Queue) Submit(req Request) {
	q.mu.Lock()
	if q.pending == nil {
		pending := Request{}
		q.pending = &pending
	}
	q.pending.merge(req)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether a request is waiting to run.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}

// Run calls fn for each request, one at a time, until ctx is done.
func (q *Queue) Run(ctx context.Context, fn func(context.Context, Request)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}

		q.mu.Lock()
		req := q.pending
		q.pending = nil
		q.mu.Unlock()

		if req == nil {
			continue
		}
		fn(ctx, *req)
	}
}
