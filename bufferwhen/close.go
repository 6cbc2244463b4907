package bufferwhen

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/streamwerks/flux/rx"
)

// closeSubscriber observes one window's close-trigger sequence. The first
// signal of either kind, element or completion, evicts its window; anything
// after that is ignored. It holds only the (coordinator, id) pair, never the
// buffer, so the registry stays the buffer's single owner.
type closeSubscriber[T, O, X any, C ~[]T] struct {
	parent *coordinator[T, O, X, C]
	id     int64
	sub    rx.SubscriptionSlot
	once   atomic.Bool
}

func (cs *closeSubscriber[T, O, X, C]) OnSubscribe(s rx.Subscription) {
	if !cs.sub.Set(s) {
		if !cs.sub.Cancelled() {
			cs.parent.drop(errors.WithMessage(rx.ErrDuplicateSubscription, "close trigger"))
		}
		return
	}
	s.Request(rx.Unbounded)
}

func (cs *closeSubscriber[T, O, X, C]) OnNext(X) {
	if !cs.once.CompareAndSwap(false, true) {
		return
	}
	cs.sub.Cancel()
	cs.parent.close(cs.id)
}

func (cs *closeSubscriber[T, O, X, C]) OnComplete() {
	if !cs.once.CompareAndSwap(false, true) {
		return
	}
	cs.parent.close(cs.id)
}

// OnError aborts the whole pipeline, not just this subscriber's window.
func (cs *closeSubscriber[T, O, X, C]) OnError(err error) {
	wrapped := errors.WithMessage(err, "close trigger")
	if !cs.once.CompareAndSwap(false, true) {
		cs.parent.drop(wrapped)
		return
	}
	cs.parent.terminate(wrapped)
}

func (cs *closeSubscriber[T, O, X, C]) dispose() {
	cs.once.Store(true)
	cs.sub.Cancel()
}
