// Package rxtest provides manually driven publishers and a recording
// subscriber for exercising operators deterministically in tests.
package rxtest

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/streamwerks/flux/rx"
)

// Source is a hot publisher driven by the test: Next/Complete/Fail broadcast
// to every live subscriber. A compliant Source forgets a subscriber once it
// delivered a terminal signal; NewNoncompliantSource keeps broadcasting
// afterwards and ignores cancellation, for exercising misbehaving upstreams.
type Source[T any] struct {
	mu              sync.Mutex
	subs            []*sourceSubscription[T]
	keepOnTerminate bool
}

func NewSource[T any]() *Source[T] {
	return &Source[T]{}
}

// NewNoncompliantSource keeps signalling subscribers after a terminal signal
// or cancellation, violating the protocol on purpose.
func NewNoncompliantSource[T any]() *Source[T] {
	return &Source[T]{keepOnTerminate: true}
}

func (s *Source[T]) Subscribe(sub rx.Subscriber[T]) {
	ss := &sourceSubscription[T]{source: s, actual: sub}
	s.mu.Lock()
	s.subs = append(s.subs, ss)
	s.mu.Unlock()
	sub.OnSubscribe(ss)
}

func (s *Source[T]) snapshot() []*sourceSubscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*sourceSubscription[T], len(s.subs))
	copy(out, s.subs)
	return out
}

// Next broadcasts values to every live subscriber, regardless of demand;
// requested counters are decremented for inspection only.
func (s *Source[T]) Next(values ...T) {
	for _, ss := range s.snapshot() {
		for _, v := range values {
			ss.next(v)
		}
	}
}

func (s *Source[T]) Complete() {
	for _, ss := range s.snapshot() {
		ss.terminate(nil, s.keepOnTerminate)
	}
}

func (s *Source[T]) Fail(err error) {
	for _, ss := range s.snapshot() {
		ss.terminate(err, s.keepOnTerminate)
	}
}

// Subscribers reports how many subscriptions are still live.
func (s *Source[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Requested returns the outstanding demand of the most recent subscriber, or
// 0 when there is none.
func (s *Source[T]) Requested() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) == 0 {
		return 0
	}
	return s.subs[len(s.subs)-1].requested.Load()
}

func (s *Source[T]) remove(ss *sourceSubscription[T]) {
	s.mu.Lock()
	for i, cur := range s.subs {
		if cur == ss {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

type sourceSubscription[T any] struct {
	source    *Source[T]
	actual    rx.Subscriber[T]
	requested atomic.Int64
	cancelled atomic.Bool
}

func (ss *sourceSubscription[T]) Request(n int64) {
	if err := rx.ValidateDemand(n); err != nil {
		ss.Cancel()
		ss.actual.OnError(err)
		return
	}
	rx.AddDemand(&ss.requested, n)
}

func (ss *sourceSubscription[T]) Cancel() {
	if ss.source.keepOnTerminate {
		return
	}
	if ss.cancelled.CompareAndSwap(false, true) {
		ss.source.remove(ss)
	}
}

func (ss *sourceSubscription[T]) next(v T) {
	if ss.cancelled.Load() {
		return
	}
	rx.ProducedDemand(&ss.requested, 1)
	ss.actual.OnNext(v)
}

func (ss *sourceSubscription[T]) terminate(err error, keep bool) {
	if ss.cancelled.Load() {
		return
	}
	if !keep {
		ss.source.remove(ss)
	}
	if err != nil {
		ss.actual.OnError(err)
	} else {
		ss.actual.OnComplete()
	}
}
