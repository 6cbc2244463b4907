package rx

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Unbounded is the demand requested by consumers that must observe every
// element regardless of their own downstream demand.
const Unbounded int64 = math.MaxInt64

var (
	// ErrInvalidDemand reports a non-positive Request, a protocol violation.
	ErrInvalidDemand = errors.New("rx: demand must be positive")
	// ErrDuplicateSubscription reports a second OnSubscribe on a subscriber
	// whose subscription is already established.
	ErrDuplicateSubscription = errors.New("rx: subscription already established")
)

// ValidateDemand returns ErrInvalidDemand for non-positive n.
func ValidateDemand(n int64) error {
	if n <= 0 {
		return errors.WithMessagef(ErrInvalidDemand, "requested %d", n)
	}
	return nil
}

// AddDemand adds n to the requested counter, capping at Unbounded, and
// returns the value before the addition.
func AddDemand(requested *atomic.Int64, n int64) int64 {
	for {
		current := requested.Load()
		if current == Unbounded {
			return current
		}
		next := current + n
		if next < 0 { // overflow
			next = Unbounded
		}
		if requested.CompareAndSwap(current, next) {
			return current
		}
	}
}

// ProducedDemand subtracts n produced elements from the requested counter
// and returns the remaining demand. Unbounded demand stays unbounded.
func ProducedDemand(requested *atomic.Int64, n int64) int64 {
	for {
		current := requested.Load()
		if current == Unbounded {
			return current
		}
		next := current - n
		if next < 0 {
			next = 0
		}
		if requested.CompareAndSwap(current, next) {
			return next
		}
	}
}

type emptySubscription struct{}

func (emptySubscription) Request(int64) {}
func (emptySubscription) Cancel()       {}

// EmptySubscription never produces and ignores cancellation. Publishers that
// terminate immediately hand it out so subscribers still observe the
// OnSubscribe/terminal ordering.
var EmptySubscription Subscription = emptySubscription{}
