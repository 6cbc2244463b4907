package log

import "go.uber.org/zap/zapcore"

// Level mirrors zap's levels without making callers import zapcore.
type Level int8

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	WarnLevel  = Level(zapcore.WarnLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

type Options struct {
	//Log level,the optional value is DebugLevel InfoLevel WarnLevel ErrorLevel
	level Level
	//use console encoding instead of json
	console bool
	//report the caller
	caller bool
	//report Warn level stack trace
	stacktrace bool
	//time layout
	timeLayout string
	//init the named
	name string
}

func (o *Options) WithStacktrace(stacktrace bool) *Options {
	o.stacktrace = stacktrace
	return o
}

func (o *Options) WithTimeLayout(timeLayout string) *Options {
	o.timeLayout = timeLayout
	return o
}

func (o *Options) WithConsole(console bool) *Options {
	o.console = console
	return o
}

func (o *Options) WithLevel(level Level) *Options {
	o.level = level
	return o
}

func (o *Options) WithCaller(caller bool) *Options {
	o.caller = caller
	return o
}

func (o *Options) WithNamed(name string) *Options {
	o.name = name
	return o
}

func DefaultOptions() *Options {
	return &Options{
		level:      InfoLevel,
		timeLayout: "02/Jan/2006:15:04:05 -0700",
	}
}
