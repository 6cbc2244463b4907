package rxtest

import (
	"sync"
	"time"

	"github.com/streamwerks/flux/rx"
)

// Recorder is a subscriber that records everything it observes. It requests
// initialDemand on subscription (rx.Unbounded for pure push) and more on
// demand via Request.
type Recorder[T any] struct {
	initial int64

	mu         sync.Mutex
	sub        rx.Subscription
	values     []T
	errs       []error
	completes  int
	terminated bool
	done       chan struct{}
}

func NewRecorder[T any](initialDemand int64) *Recorder[T] {
	return &Recorder[T]{initial: initialDemand, done: make(chan struct{})}
}

func (r *Recorder[T]) OnSubscribe(s rx.Subscription) {
	r.mu.Lock()
	r.sub = s
	r.mu.Unlock()
	if r.initial > 0 {
		s.Request(r.initial)
	}
}

func (r *Recorder[T]) OnNext(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *Recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.markTerminated()
	r.mu.Unlock()
}

func (r *Recorder[T]) OnComplete() {
	r.mu.Lock()
	r.completes++
	r.markTerminated()
	r.mu.Unlock()
}

// markTerminated must be called with mu held.
func (r *Recorder[T]) markTerminated() {
	if !r.terminated {
		r.terminated = true
		close(r.done)
	}
}

// Request forwards additional demand upstream.
func (r *Recorder[T]) Request(n int64) {
	r.mu.Lock()
	sub := r.sub
	r.mu.Unlock()
	if sub != nil {
		sub.Request(n)
	}
}

func (r *Recorder[T]) Cancel() {
	r.mu.Lock()
	sub := r.sub
	r.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Upstream exposes the subscription, e.g. for diagnostics inspection.
func (r *Recorder[T]) Upstream() rx.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}

func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func (r *Recorder[T]) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *Recorder[T]) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes > 0
}

func (r *Recorder[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes
}

func (r *Recorder[T]) Terminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminated
}

// Await blocks until a terminal signal arrives or d elapses, reporting
// whether the recorder terminated in time.
func (r *Recorder[T]) Await(d time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(d):
		return false
	}
}

// AwaitCount polls until at least n values were recorded or d elapses.
func (r *Recorder[T]) AwaitCount(n int, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		r.mu.Lock()
		got := len(r.values)
		r.mu.Unlock()
		if got >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
