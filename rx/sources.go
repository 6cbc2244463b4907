package rx

import "go.uber.org/atomic"

// FromSlice publishes the values of a slice in order, honoring demand, then
// completes. Each subscriber gets its own cursor.
func FromSlice[T any](values []T) Publisher[T] {
	return &slicePublisher[T]{values: values}
}

// Just publishes the given values then completes.
func Just[T any](values ...T) Publisher[T] {
	return FromSlice(values)
}

// Empty completes immediately without producing.
func Empty[T any]() Publisher[T] {
	return publisherFunc[T](func(s Subscriber[T]) {
		s.OnSubscribe(EmptySubscription)
		s.OnComplete()
	})
}

// Never neither produces nor terminates.
func Never[T any]() Publisher[T] {
	return publisherFunc[T](func(s Subscriber[T]) {
		s.OnSubscribe(EmptySubscription)
	})
}

// Fail errors immediately with err.
func Fail[T any](err error) Publisher[T] {
	return publisherFunc[T](func(s Subscriber[T]) {
		s.OnSubscribe(EmptySubscription)
		s.OnError(err)
	})
}

type publisherFunc[T any] func(Subscriber[T])

func (f publisherFunc[T]) Subscribe(s Subscriber[T]) { f(s) }

type slicePublisher[T any] struct {
	values []T
}

func (p *slicePublisher[T]) Subscribe(s Subscriber[T]) {
	sub := &sliceSubscription[T]{actual: s, values: p.values}
	s.OnSubscribe(sub)
}

type sliceSubscription[T any] struct {
	actual Subscriber[T]
	values []T

	index     int // owned by the drain holder
	emitted   int64
	requested atomic.Int64
	wip       atomic.Int32
	cancelled atomic.Bool
}

func (s *sliceSubscription[T]) Request(n int64) {
	if err := ValidateDemand(n); err != nil {
		s.Cancel()
		s.actual.OnError(err)
		return
	}
	AddDemand(&s.requested, n)
	s.drain()
}

func (s *sliceSubscription[T]) Cancel() {
	s.cancelled.Store(true)
}

func (s *sliceSubscription[T]) drain() {
	if s.wip.Inc() != 1 {
		return
	}
	missed := int32(1)
	for {
		r := s.requested.Load()
		for s.emitted != r && s.index < len(s.values) {
			if s.cancelled.Load() {
				return
			}
			s.actual.OnNext(s.values[s.index])
			s.index++
			s.emitted++
		}
		if s.index == len(s.values) {
			if !s.cancelled.Load() {
				s.actual.OnComplete()
			}
			return
		}
		missed = s.wip.Sub(missed)
		if missed == 0 {
			return
		}
	}
}
