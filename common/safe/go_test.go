package safe_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwerks/flux/common/safe"
)

func TestRunPassesThroughError(t *testing.T) {
	want := errors.New("boom")
	assert.Equal(t, want, safe.Run(func() error { return want }))
	assert.NoError(t, safe.Run(func() error { return nil }))
}

func TestRunRecoversStringPanic(t *testing.T) {
	err := safe.Run(func() error { panic("boom") })
	require.Error(t, err)
	assert.EqualError(t, err, "boom")
}

func TestRunRecoversErrorPanic(t *testing.T) {
	want := errors.New("boom")
	assert.Equal(t, want, safe.Run(func() error { panic(want) }))
}

func TestRunRecoversArbitraryPanic(t *testing.T) {
	err := safe.Run(func() error { panic(42) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42")
}

func TestCallReturnsValue(t *testing.T) {
	out, err := safe.Call(func() []int { return []int{1, 2} })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out)
}

func TestCallRecoversPanic(t *testing.T) {
	out, err := safe.Call(func() []int { panic("factory boom") })
	require.Error(t, err)
	assert.Nil(t, out)
	assert.EqualError(t, err, "factory boom")
}
