package rx

import "sync"

// SubscriptionSlot is a set-once holder for a Subscription with idempotent
// cancellation. It arbitrates the races between OnSubscribe arriving from a
// producer thread and Cancel arriving from anywhere else.
type SubscriptionSlot struct {
	mu        sync.Mutex
	sub       Subscription
	set       bool
	cancelled bool
}

// Set installs s and reports whether the slot accepted it. A slot that was
// cancelled first swallows s (and cancels it); a slot that is already
// holding a subscription rejects the duplicate, which the caller should
// report as a protocol violation.
func (ss *SubscriptionSlot) Set(s Subscription) bool {
	ss.mu.Lock()
	if ss.cancelled {
		ss.mu.Unlock()
		s.Cancel()
		return false
	}
	if ss.set {
		ss.mu.Unlock()
		s.Cancel()
		return false
	}
	ss.sub = s
	ss.set = true
	ss.mu.Unlock()
	return true
}

// Cancel cancels the held subscription, if any, exactly once. A slot
// cancelled before Set swallows the late subscription.
func (ss *SubscriptionSlot) Cancel() {
	ss.mu.Lock()
	if ss.cancelled {
		ss.mu.Unlock()
		return
	}
	ss.cancelled = true
	sub := ss.sub
	ss.sub = nil
	ss.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Request forwards demand to the held subscription, if established.
func (ss *SubscriptionSlot) Request(n int64) {
	ss.mu.Lock()
	sub := ss.sub
	ss.mu.Unlock()
	if sub != nil {
		sub.Request(n)
	}
}

// Cancelled reports whether Cancel has been called.
func (ss *SubscriptionSlot) Cancelled() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.cancelled
}

// Established reports whether a subscription has been accepted.
func (ss *SubscriptionSlot) Established() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.set
}
