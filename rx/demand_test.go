package rx_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/streamwerks/flux/rx"
)

func TestValidateDemand(t *testing.T) {
	assert.NoError(t, rx.ValidateDemand(1))
	assert.NoError(t, rx.ValidateDemand(rx.Unbounded))
	assert.True(t, errors.Is(rx.ValidateDemand(0), rx.ErrInvalidDemand))
	assert.True(t, errors.Is(rx.ValidateDemand(-5), rx.ErrInvalidDemand))
}

func TestAddDemand(t *testing.T) {
	var requested atomic.Int64

	assert.Equal(t, int64(0), rx.AddDemand(&requested, 3))
	assert.Equal(t, int64(3), requested.Load())

	assert.Equal(t, int64(3), rx.AddDemand(&requested, 2))
	assert.Equal(t, int64(5), requested.Load())
}

func TestAddDemandCapsAtUnbounded(t *testing.T) {
	var requested atomic.Int64
	requested.Store(rx.Unbounded - 1)

	rx.AddDemand(&requested, 10)
	assert.Equal(t, rx.Unbounded, requested.Load())

	// unbounded is sticky
	rx.AddDemand(&requested, 1)
	assert.Equal(t, rx.Unbounded, requested.Load())
}

func TestProducedDemand(t *testing.T) {
	var requested atomic.Int64
	requested.Store(5)

	assert.Equal(t, int64(3), rx.ProducedDemand(&requested, 2))
	assert.Equal(t, int64(0), rx.ProducedDemand(&requested, 10))

	requested.Store(rx.Unbounded)
	assert.Equal(t, rx.Unbounded, rx.ProducedDemand(&requested, 1))
	assert.Equal(t, rx.Unbounded, requested.Load())
}
