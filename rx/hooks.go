package rx

import (
	"sync/atomic"

	"github.com/streamwerks/flux/log"
)

// droppedHook holds a func(error) observing terminal errors that arrive
// after a pipeline has already terminated.
var droppedHook atomic.Value

// OnErrorDropped installs fn as the process-wide observer for errors that
// can no longer be delivered downstream. Passing nil restores the default,
// which logs the error at warn level.
func OnErrorDropped(fn func(error)) {
	if fn == nil {
		fn = logDropped
	}
	droppedHook.Store(fn)
}

// DropError reroutes err to the dropped-error observer. A nil err is
// discarded.
func DropError(err error) {
	if err == nil {
		return
	}
	if fn, ok := droppedHook.Load().(func(error)); ok && fn != nil {
		fn(err)
		return
	}
	logDropped(err)
}

func logDropped(err error) {
	log.Global().Warnw("error dropped after pipeline termination", "error", err)
}
