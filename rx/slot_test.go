package rx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/streamwerks/flux/rx"
)

type fakeSubscription struct {
	requested atomic.Int64
	cancels   atomic.Int32
}

func (f *fakeSubscription) Request(n int64) { f.requested.Add(n) }
func (f *fakeSubscription) Cancel()         { f.cancels.Inc() }

func TestSlotSetOnce(t *testing.T) {
	var slot rx.SubscriptionSlot
	first := &fakeSubscription{}
	second := &fakeSubscription{}

	assert.False(t, slot.Established())
	assert.True(t, slot.Set(first))
	assert.True(t, slot.Established())

	// the duplicate is cancelled, the original untouched
	assert.False(t, slot.Set(second))
	assert.Equal(t, int32(1), second.cancels.Load())
	assert.Equal(t, int32(0), first.cancels.Load())
}

func TestSlotRequestForwards(t *testing.T) {
	var slot rx.SubscriptionSlot
	sub := &fakeSubscription{}

	slot.Request(1) // nothing held yet, no-op
	slot.Set(sub)
	slot.Request(5)
	assert.Equal(t, int64(5), sub.requested.Load())
}

func TestSlotCancelIdempotent(t *testing.T) {
	var slot rx.SubscriptionSlot
	sub := &fakeSubscription{}
	slot.Set(sub)

	slot.Cancel()
	slot.Cancel()
	assert.Equal(t, int32(1), sub.cancels.Load())
	assert.True(t, slot.Cancelled())
}

func TestSlotCancelBeforeSetSwallowsLateSubscription(t *testing.T) {
	var slot rx.SubscriptionSlot
	slot.Cancel()

	late := &fakeSubscription{}
	assert.False(t, slot.Set(late))
	assert.Equal(t, int32(1), late.cancels.Load())
	assert.False(t, slot.Established())
}
