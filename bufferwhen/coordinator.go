package bufferwhen

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/streamwerks/flux/common/safe"
	"github.com/streamwerks/flux/common/status"
	"github.com/streamwerks/flux/rx"
)

// coordinator is the operator's main subscriber. It consumes the source with
// unbounded demand, fans elements into every registered window, owns the
// window registry and the pending-output queue, and arbitrates termination
// across the source, the open subscriber and every close subscriber.
//
// It is also the Subscription handed to the downstream subscriber.
type coordinator[T, O, X any, C ~[]T] struct {
	actual        rx.Subscriber[C]
	factory       func() C
	closeSelector func(O) rx.Publisher[X]
	settings      settings

	opener *openSubscriber[T, O, X, C]
	parent rx.SubscriptionSlot

	// mu guards windows, queue, err and nextID. It is never held across a
	// call into collaborator code: the factory, the close selector and
	// downstream callbacks all run outside of it.
	mu      sync.Mutex
	windows *registry[T, C] // nil once buffers have been flushed or discarded
	queue   []C
	err     error
	nextID  int64

	state     status.Status
	requested atomic.Int64
	emitted   atomic.Int64 // written by the drain holder only
	wip       atomic.Int32
	done      atomic.Bool
	cancelled atomic.Bool
	errOnce   atomic.Bool
	openDone  atomic.Bool
}

func newCoordinator[T, O, X any, C ~[]T](
	actual rx.Subscriber[C],
	factory func() C,
	closeSelector func(O) rx.Publisher[X],
	s settings,
) *coordinator[T, O, X, C] {
	c := &coordinator[T, O, X, C]{
		actual:        actual,
		factory:       factory,
		closeSelector: closeSelector,
		settings:      s,
		windows:       newRegistry[T, C](),
	}
	c.opener = &openSubscriber[T, O, X, C]{parent: c}
	return c
}

// -------------------------------------source subscriber---------------------------------------------

func (c *coordinator[T, O, X, C]) OnSubscribe(s rx.Subscription) {
	if !c.parent.Set(s) {
		if !c.parent.Cancelled() {
			c.settings.logger.Warnf("duplicate source subscription rejected")
			c.drop(errors.WithMessage(rx.ErrDuplicateSubscription, "source"))
		}
		return
	}
	// buffering must observe every element regardless of downstream demand
	s.Request(rx.Unbounded)
}

func (c *coordinator[T, O, X, C]) OnNext(v T) {
	c.mu.Lock()
	if c.windows != nil {
		c.windows.appendAll(v)
	}
	c.mu.Unlock()
}

func (c *coordinator[T, O, X, C]) OnError(err error) {
	c.terminate(errors.WithMessage(err, "source"))
}

// OnComplete flushes every still-open window as a completed buffer, in
// window-creation order, then completes downstream once the queue drains. A
// window whose close trigger never fires must not retain its buffer forever.
func (c *coordinator[T, O, X, C]) OnComplete() {
	if !status.CAP(&c.state, status.Active, status.Terminating) {
		return
	}
	c.opener.dispose()
	var closers []disposable
	c.mu.Lock()
	if c.windows != nil {
		var buffers []C
		buffers, closers = c.windows.takeAll()
		c.queue = append(c.queue, buffers...)
		c.windows = nil
	}
	c.mu.Unlock()
	for _, cl := range closers {
		cl.dispose()
	}
	c.done.Store(true)
	c.drain()
}

// -------------------------------------downstream subscription---------------------------------------------

func (c *coordinator[T, O, X, C]) Request(n int64) {
	if err := rx.ValidateDemand(n); err != nil {
		c.terminate(err)
		return
	}
	rx.AddDemand(&c.requested, n)
	c.drain()
}

func (c *coordinator[T, O, X, C]) Cancel() {
	if !c.cancelled.CompareAndSwap(false, true) {
		return
	}
	status.CAP(&c.state, status.Active, status.Terminated)
	status.CAP(&c.state, status.Terminating, status.Terminated)
	c.parent.Cancel()
	c.opener.dispose()
	var closers []disposable
	c.mu.Lock()
	if c.windows != nil {
		closers = c.windows.discardAll()
		c.windows = nil
	}
	c.queue = nil
	c.mu.Unlock()
	for _, cl := range closers {
		cl.dispose()
	}
}

// -------------------------------------window lifecycle---------------------------------------------

// open allocates the next window: a fresh buffer from the factory, a close
// trigger derived from the open value, and a close subscriber registered
// under a monotonically increasing id.
func (c *coordinator[T, O, X, C]) open(openValue O) {
	buffer, err := safe.Call(func() C { return c.factory() })
	if err != nil {
		c.terminate(errors.WithMessage(err, "buffer factory"))
		return
	}
	trigger, err := safe.Call(func() rx.Publisher[X] { return c.closeSelector(openValue) })
	if err != nil {
		c.terminate(errors.WithMessage(err, "close selector"))
		return
	}
	if trigger == nil {
		c.terminate(errors.New("close selector returned a nil publisher"))
		return
	}
	closer := &closeSubscriber[T, O, X, C]{parent: c}
	c.mu.Lock()
	if c.windows == nil {
		c.mu.Unlock()
		return
	}
	id := c.nextID
	c.nextID++
	closer.id = id
	c.windows.add(id, buffer, closer)
	c.mu.Unlock()
	trigger.Subscribe(closer)
	if status.Load(&c.state) != status.Active {
		// lost the race against a concurrent teardown; the window must not
		// outlive the pipeline
		c.mu.Lock()
		if c.windows != nil {
			c.windows.evict(id)
		}
		c.mu.Unlock()
		closer.dispose()
	}
}

// close evicts window id, moving its buffer to the pending-output queue.
// Evicting twice is a no-op. Once the open signal is exhausted and the last
// window closes, no window can ever open again and the pipeline resolves.
func (c *coordinator[T, O, X, C]) close(id int64) {
	c.mu.Lock()
	if c.windows == nil {
		c.mu.Unlock()
		return
	}
	buffer, ok := c.windows.evict(id)
	if ok {
		c.queue = append(c.queue, buffer)
	}
	emptied := c.windows.size() == 0
	c.mu.Unlock()
	if ok && emptied && c.openDone.Load() {
		c.resolve()
	}
	c.drain()
}

// openComplete records that no further window will ever open. By itself it
// terminates nothing while windows remain live.
func (c *coordinator[T, O, X, C]) openComplete() {
	c.openDone.Store(true)
	c.mu.Lock()
	empty := c.windows == nil || c.windows.size() == 0
	c.mu.Unlock()
	if empty {
		c.resolve()
		c.drain()
	}
}

// resolve completes the pipeline without source completion: the open signal
// is exhausted and no window remains, so the source can no longer contribute
// to any buffer.
func (c *coordinator[T, O, X, C]) resolve() {
	if !status.CAP(&c.state, status.Active, status.Terminating) {
		return
	}
	c.parent.Cancel()
	c.opener.dispose()
	c.done.Store(true)
}

// -------------------------------------termination arbitration---------------------------------------------

// terminate claims the single terminal error slot. The first failure from
// any of {source, open signal, close trigger, factory, selector, protocol}
// wins and tears the whole pipeline down, discarding all unflushed buffers;
// every other terminal error is rerouted to the dropped-signal observer.
func (c *coordinator[T, O, X, C]) terminate(err error) {
	if c.cancelled.Load() || c.done.Load() || !c.errOnce.CompareAndSwap(false, true) {
		c.drop(err)
		return
	}
	status.CAP(&c.state, status.Active, status.Terminated)
	c.parent.Cancel()
	c.opener.dispose()
	var closers []disposable
	c.mu.Lock()
	c.err = err
	if c.windows != nil {
		closers = c.windows.discardAll()
		c.windows = nil
	}
	c.queue = nil
	c.mu.Unlock()
	for _, cl := range closers {
		cl.dispose()
	}
	c.done.Store(true)
	c.drain()
}

func (c *coordinator[T, O, X, C]) drop(err error) {
	if err == nil {
		return
	}
	if c.settings.dropped != nil {
		c.settings.dropped(err)
		return
	}
	rx.DropError(err)
}

// -------------------------------------drain loop---------------------------------------------

// drain is the serialized emission procedure: exactly one caller at a time
// matches completed buffers against outstanding demand. Competing callers
// leave a missed mark and return.
func (c *coordinator[T, O, X, C]) drain() {
	if c.wip.Inc() != 1 {
		return
	}
	missed := int32(1)
	for {
		r := c.requested.Load()
		for c.emitted.Load() != r {
			if c.cancelled.Load() {
				return
			}
			done := c.done.Load()
			c.mu.Lock()
			err := c.err
			if done && err != nil {
				c.mu.Unlock()
				c.finish(err)
				return
			}
			var next C
			var ok bool
			if len(c.queue) > 0 {
				next = c.queue[0]
				var zero C
				c.queue[0] = zero // release the reference at eviction time
				c.queue = c.queue[1:]
				ok = true
			}
			c.mu.Unlock()
			if done && !ok {
				c.finish(nil)
				return
			}
			if !ok {
				break
			}
			c.actual.OnNext(next)
			c.emitted.Inc()
		}
		if c.emitted.Load() == r {
			if c.cancelled.Load() {
				return
			}
			if c.done.Load() {
				c.mu.Lock()
				err := c.err
				empty := len(c.queue) == 0
				c.mu.Unlock()
				if err != nil {
					c.finish(err)
					return
				}
				if empty {
					c.finish(nil)
					return
				}
			}
		}
		missed = c.wip.Sub(missed)
		if missed == 0 {
			return
		}
	}
}

// finish delivers the single terminal signal downstream. The drain holder
// returns without releasing wip afterwards, so no further emission can ever
// happen.
func (c *coordinator[T, O, X, C]) finish(err error) {
	status.CAP(&c.state, status.Active, status.Terminated)
	status.CAP(&c.state, status.Terminating, status.Terminated)
	c.mu.Lock()
	c.queue = nil
	c.mu.Unlock()
	if err != nil {
		c.actual.OnError(err)
	} else {
		c.actual.OnComplete()
	}
}
