package bufferwhen

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/streamwerks/flux/rx"
)

// openSubscriber observes the open-boundary sequence with unbounded demand
// and asks the coordinator to start a window for every element. Its own
// completion stops window creation but terminates nothing while windows
// remain live; its failure aborts the whole pipeline.
type openSubscriber[T, O, X any, C ~[]T] struct {
	parent   *coordinator[T, O, X, C]
	sub      rx.SubscriptionSlot
	disposed atomic.Bool
	done     atomic.Bool
}

func (o *openSubscriber[T, O, X, C]) OnSubscribe(s rx.Subscription) {
	if !o.sub.Set(s) {
		if !o.sub.Cancelled() {
			o.parent.drop(errors.WithMessage(rx.ErrDuplicateSubscription, "open signal"))
		}
		return
	}
	s.Request(rx.Unbounded)
}

func (o *openSubscriber[T, O, X, C]) OnNext(v O) {
	if o.disposed.Load() || o.done.Load() {
		return
	}
	o.parent.open(v)
}

func (o *openSubscriber[T, O, X, C]) OnError(err error) {
	o.parent.terminate(errors.WithMessage(err, "open signal"))
}

// OnComplete is terminal for window creation even when windows stay live: a
// misbehaving publisher signalling past its completion must not open more.
func (o *openSubscriber[T, O, X, C]) OnComplete() {
	if !o.done.CompareAndSwap(false, true) {
		return
	}
	if o.disposed.Load() {
		return
	}
	o.parent.openComplete()
}

func (o *openSubscriber[T, O, X, C]) dispose() {
	if o.disposed.CompareAndSwap(false, true) {
		o.sub.Cancel()
	}
}
