package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalBuildsDefault(t *testing.T) {
	l := Global()
	assert.NotNil(t, l)
	assert.NotNil(t, l.Named("child"))

	// same root on every call
	assert.Equal(t, l, Global())
}

func TestSetupIsOneShot(t *testing.T) {
	Setup(DefaultOptions().WithConsole(true))
	first := Global()

	// the second setup is rejected, the root stays
	Setup(DefaultOptions().WithLevel(DebugLevel))
	assert.Equal(t, first, Global())
}

func TestOptionsBuilder(t *testing.T) {
	o := DefaultOptions().
		WithLevel(WarnLevel).
		WithConsole(true).
		WithCaller(true).
		WithStacktrace(true).
		WithTimeLayout("15:04:05").
		WithNamed("pipeline")

	assert.Equal(t, WarnLevel, o.level)
	assert.True(t, o.console)
	assert.True(t, o.caller)
	assert.True(t, o.stacktrace)
	assert.Equal(t, "15:04:05", o.timeLayout)
	assert.Equal(t, "pipeline", o.name)

	assert.NotNil(t, build(o))
}
