// Package metrics decorates publishers with tally instrumentation: signal
// counters, demand accounting and a subscribe-to-terminate timer. The
// decorator is transparent to the push/demand protocol.
package metrics

import (
	"github.com/uber-go/tally/v4"
	"go.uber.org/atomic"

	"github.com/streamwerks/flux/rx"
)

// Instrument wraps p so that every subscription reports, under the given
// scope:
//
//	subscribed      counter, one per subscription
//	emitted         counter, one per element
//	errors          counter, one per terminal error
//	completions     counter, one per completion
//	cancellations   counter, one per downstream cancel
//	requested       counter, incremented by the demand requested
//	lifetime        timer, subscribe to terminal or cancel
func Instrument[T any](scope tally.Scope, p rx.Publisher[T]) rx.Publisher[T] {
	return &instrumentedPublisher[T]{scope: scope, source: p}
}

type instrumentedPublisher[T any] struct {
	scope  tally.Scope
	source rx.Publisher[T]
}

func (p *instrumentedPublisher[T]) Subscribe(actual rx.Subscriber[T]) {
	p.scope.Counter("subscribed").Inc(1)
	p.source.Subscribe(&instrumentedSubscriber[T]{
		actual:    actual,
		scope:     p.scope,
		stopwatch: p.scope.Timer("lifetime").Start(),
	})
}

type instrumentedSubscriber[T any] struct {
	actual    rx.Subscriber[T]
	scope     tally.Scope
	stopwatch tally.Stopwatch
	stopped   atomic.Bool
}

func (s *instrumentedSubscriber[T]) OnSubscribe(sub rx.Subscription) {
	s.actual.OnSubscribe(&instrumentedSubscription[T]{parent: s, sub: sub})
}

func (s *instrumentedSubscriber[T]) OnNext(v T) {
	s.scope.Counter("emitted").Inc(1)
	s.actual.OnNext(v)
}

func (s *instrumentedSubscriber[T]) OnError(err error) {
	s.scope.Counter("errors").Inc(1)
	s.stop()
	s.actual.OnError(err)
}

func (s *instrumentedSubscriber[T]) OnComplete() {
	s.scope.Counter("completions").Inc(1)
	s.stop()
	s.actual.OnComplete()
}

// stop records the lifetime once; terminal signals and cancellation race on
// misbehaving pipelines.
func (s *instrumentedSubscriber[T]) stop() {
	if s.stopped.CompareAndSwap(false, true) {
		s.stopwatch.Stop()
	}
}

type instrumentedSubscription[T any] struct {
	parent *instrumentedSubscriber[T]
	sub    rx.Subscription
}

func (is *instrumentedSubscription[T]) Request(n int64) {
	if n > 0 {
		is.parent.scope.Counter("requested").Inc(n)
	}
	is.sub.Request(n)
}

func (is *instrumentedSubscription[T]) Cancel() {
	is.parent.scope.Counter("cancellations").Inc(1)
	is.parent.stop()
	is.sub.Cancel()
}
