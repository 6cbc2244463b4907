package bufferwhen

import (
	"github.com/streamwerks/flux/common/status"
	"github.com/streamwerks/flux/rx"
)

// Diagnostics is a read-only snapshot of the operator's internals for
// observability tooling. Taking one has no side effects.
type Diagnostics struct {
	// OpenWindows is the number of currently registered windows.
	OpenWindows int
	// PendingBuffers is the number of completed buffers waiting for
	// downstream demand.
	PendingBuffers int
	// Requested is the outstanding downstream demand (rx.Unbounded when the
	// downstream requested unbounded).
	Requested int64
	// SourceSubscribed reports whether the upstream source subscription has
	// been established.
	SourceSubscribed bool
	// OpenSignalDone reports whether the open-boundary sequence is
	// exhausted.
	OpenSignalDone bool
	Terminated     bool
	Cancelled      bool
}

// Diagnosable is implemented by the subscription this operator hands to its
// downstream subscriber.
type Diagnosable interface {
	Diagnostics() Diagnostics
}

func (c *coordinator[T, O, X, C]) Diagnostics() Diagnostics {
	c.mu.Lock()
	open := 0
	if c.windows != nil {
		open = c.windows.size()
	}
	pending := len(c.queue)
	c.mu.Unlock()

	requested := c.requested.Load()
	if requested != rx.Unbounded {
		requested -= c.emitted.Load()
	}
	return Diagnostics{
		OpenWindows:      open,
		PendingBuffers:   pending,
		Requested:        requested,
		SourceSubscribed: c.parent.Established(),
		OpenSignalDone:   c.openDone.Load(),
		Terminated:       c.done.Load() || status.Load(&c.state) == status.Terminated,
		Cancelled:        c.cancelled.Load(),
	}
}
