// Package bufferwhen implements a buffering operator with dynamic window
// boundaries. Elements of a source publisher are accumulated into buffers:
// each element of a companion open publisher starts a new buffer, and the
// window it opened is closed by the first signal (element or completion) of
// a per-window close publisher derived from the open value. Windows may
// overlap, abut or leave gaps; an element is appended to every window that
// is open when it arrives.
package bufferwhen

import (
	"github.com/streamwerks/flux/log"
	"github.com/streamwerks/flux/rx"
)

// Option configures the assembled operator.
type Option func(*settings)

type settings struct {
	logger  log.Logger
	dropped func(error)
}

// WithLogger routes the operator's diagnostics logging to logger instead of
// the global one.
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithDroppedHandler observes terminal errors that arrive after the pipeline
// has already terminated, instead of the process-wide rx.OnErrorDropped
// hook.
func WithDroppedHandler(fn func(error)) Option {
	return func(s *settings) {
		s.dropped = fn
	}
}

// New assembles the operator.
//
// factory produces one empty accumulator per window; closeSelector derives a
// window's close publisher from the open value that created it and is
// invoked at most once per open signal. The returned publisher emits each
// closed window's buffer, honoring downstream demand; the source itself is
// always consumed with unbounded demand, since every element must be
// observed no matter how slowly buffers are drained.
func New[T, O, X any, C ~[]T](
	source rx.Publisher[T],
	open rx.Publisher[O],
	closeSelector func(O) rx.Publisher[X],
	factory func() C,
	opts ...Option,
) rx.Publisher[C] {
	s := settings{
		logger:  log.Global().Named("bufferwhen"),
		dropped: rx.DropError,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &operator[T, O, X, C]{
		source:        source,
		open:          open,
		closeSelector: closeSelector,
		factory:       factory,
		settings:      s,
	}
}

type operator[T, O, X any, C ~[]T] struct {
	source        rx.Publisher[T]
	open          rx.Publisher[O]
	closeSelector func(O) rx.Publisher[X]
	factory       func() C
	settings      settings
}

func (p *operator[T, O, X, C]) Subscribe(actual rx.Subscriber[C]) {
	c := newCoordinator[T, O, X, C](actual, p.factory, p.closeSelector, p.settings)
	actual.OnSubscribe(c)
	p.open.Subscribe(c.opener)
	p.source.Subscribe(c)
}
