package rxtest

import (
	"time"

	"github.com/streamwerks/flux/common/executor"
	"github.com/streamwerks/flux/common/safe"
	"github.com/streamwerks/flux/rx"
)

// After publishes v once after d, then completes. Cancellation stops the
// timer and releases its goroutine.
func After[T any](d time.Duration, v T) rx.Publisher[T] {
	return timedPublisher[T](func(sub rx.Subscriber[T], stop <-chan struct{}) bool {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			sub.OnNext(v)
			return true
		case <-stop:
			return false
		}
	})
}

// Interval publishes 0..count-1 (count < 0 means unbounded), the first value
// after initial and the rest period apart, ignoring demand: it drives
// operators that subscribe with unbounded demand.
func Interval(initial, period time.Duration, count int) rx.Publisher[int64] {
	return timedPublisher[int64](func(sub rx.Subscriber[int64], stop <-chan struct{}) bool {
		timer := time.NewTimer(initial)
		defer timer.Stop()
		for i := int64(0); count < 0 || i < int64(count); i++ {
			select {
			case <-timer.C:
				sub.OnNext(i)
				timer.Reset(period)
			case <-stop:
				return false
			}
		}
		return true
	})
}

// Emit publishes the given values delay apart, then completes.
func Emit[T any](delay time.Duration, values ...T) rx.Publisher[T] {
	return timedPublisher[T](func(sub rx.Subscriber[T], stop <-chan struct{}) bool {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		for _, v := range values {
			select {
			case <-timer.C:
				sub.OnNext(v)
				timer.Reset(delay)
			case <-stop:
				return false
			}
		}
		return true
	})
}

// timedPublisher runs its emission body on a goroutine; the body reports
// whether it ran to the end. Completion is arbitrated against cancellation
// by a one-shot executor so OnComplete never fires after Cancel. A panic in
// a subscriber callback is recovered and delivered as the terminal error
// instead of crashing the process.
type timedPublisher[T any] func(sub rx.Subscriber[T], stop <-chan struct{}) bool

func (p timedPublisher[T]) Subscribe(sub rx.Subscriber[T]) {
	ex := executor.NewExecutor(func() { sub.OnComplete() })
	sub.OnSubscribe(timedSubscription{ex})
	go func() {
		err := safe.Run(func() error {
			if p(sub, ex.Done()) {
				ex.Exec()
			}
			return nil
		})
		if err == nil {
			return
		}
		if ex.Cancel() {
			sub.OnError(err)
		} else {
			rx.DropError(err)
		}
	}()
}

type timedSubscription struct {
	ex *executor.Executor
}

func (ts timedSubscription) Request(int64) {}

func (ts timedSubscription) Cancel() {
	ts.ex.Cancel()
}
