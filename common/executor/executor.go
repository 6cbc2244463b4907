package executor

import "sync/atomic"

// Executor arbitrates a one-shot action against cancellation: exactly one of
// Exec or Cancel wins the CAS, and Done is closed either way. Useful when a
// completion callback must not fire after a concurrent cancel.
type Executor struct {
	exec func()
	//0:no process //1: executed //2: canceled
	status uint32
	done   chan struct{}
}

func (e *Executor) Cancel() bool {
	if atomic.CompareAndSwapUint32(&e.status, 0, 2) {
		close(e.done)
		return true
	}
	return false
}

func (e *Executor) Canceled() bool {
	return atomic.LoadUint32(&e.status) == 2
}

func (e *Executor) Executed() bool {
	return atomic.LoadUint32(&e.status) == 1
}

// Exec runs the action if neither Exec nor Cancel won before.
func (e *Executor) Exec() bool {
	if atomic.CompareAndSwapUint32(&e.status, 0, 1) {
		defer close(e.done)
		e.exec()
		return true
	}
	return false
}

// Done is closed once the executor has either executed or been cancelled.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

func NewExecutor(exec func()) *Executor {
	return &Executor{
		exec: exec,
		done: make(chan struct{}),
	}
}
