// Package rx defines the asynchronous push protocol with pull-based demand
// signalling that every operator in this module is written against. The
// shapes follow the reactive-streams contract: a Publisher produces a
// potentially unbounded number of sequenced elements, publishing them
// according to the demand its Subscriber has requested.
package rx

// Publisher is a provider of a potentially unbounded number of sequenced
// elements. Subscribe is a factory method: each call starts an independent
// subscription.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// Subscriber receives OnSubscribe exactly once after being passed to
// Publisher.Subscribe; the Subscription it is handed is the only way of
// requesting elements from the Publisher.
//
// A well-behaved Publisher delivers at most one terminal signal (OnError or
// OnComplete) and nothing after it.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// Subscription represents the one-to-one lifecycle of a Subscriber
// subscribing to a Publisher.
type Subscription interface {
	// Request asks the Publisher for up to n more elements. n must be
	// positive; Unbounded switches the subscription to pure push.
	Request(n int64)
	// Cancel asks the Publisher to stop sending data. Idempotent.
	Cancel()
}

// Processor is both a Subscriber and a Publisher, consuming T and
// republishing R.
type Processor[T, R any] interface {
	Subscriber[T]
	Publisher[R]
}
