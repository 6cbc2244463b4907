package status

import "sync/atomic"

// Status is the shared lifecycle flag of a pipeline. It only moves forward:
// Active -> Terminating -> Terminated, or Active -> Terminated directly on
// error and cancellation.
type Status int64

func (s Status) Active() bool {
	return s == Active
}
func (s Status) Terminating() bool {
	return s == Terminating
}
func (s Status) Terminated() bool {
	return s == Terminated
}

const (
	Active Status = iota
	Terminating
	Terminated
)

// CAP compares and swaps; the caller that wins a terminal transition owns
// teardown, everyone else backs off.
func CAP(statusPointer *Status, from, to Status) bool {
	return atomic.CompareAndSwapInt64((*int64)(statusPointer), int64(from), int64(to))
}

func Load(statusPointer *Status) Status {
	return Status(atomic.LoadInt64((*int64)(statusPointer)))
}
