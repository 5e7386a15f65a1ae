// Package chainlog provides the module-scoped, key-value structured logger
// used throughout boardrush. It mirrors the call-site shape used across the
// teacher codebase (log.NewModuleLogger(name), then logger.Info("msg", "k",
// v, ...)) with a colorized console handler for interactive terminal runs.
package chainlog

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
)

// Level is the log verbosity level.
type Level int

const (
	LvlError Level = iota
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

var levelNames = map[Level]string{
	LvlError: "ERROR",
	LvlWarn:  "WARN",
	LvlInfo:  "INFO",
	LvlDebug: "DEBUG",
	LvlTrace: "TRACE",
}

var levelColors = map[Level]*color.Color{
	LvlError: color.New(color.FgRed, color.Bold),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgMagenta),
}

var (
	mu       sync.Mutex
	out      io.Writer = colorable.NewColorableStdout()
	minLevel           = LvlInfo
)

// SetOutput redirects all module loggers to w (tests use this to capture
// output; nil resets to the colorable stdout).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		out = colorable.NewColorableStdout()
		return
	}
	out = w
}

// SetLevel sets the minimum level that reaches the writer.
func SetLevel(lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = lvl
}

// Logger is a module-scoped key-value logger.
type Logger struct {
	module string
}

// NewModuleLogger returns a Logger tagged with module, following the
// teacher's log.NewModuleLogger(log.Common) idiom.
func NewModuleLogger(module string) *Logger {
	return &Logger{module: module}
}

func (l *Logger) log(lvl Level, msg string, ctx ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if lvl > minLevel {
		return
	}
	c := levelColors[lvl]
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	line := fmt.Sprintf("%s [%s] %-5s %s", ts, l.module, levelNames[lvl], msg)
	for i := 0; i+1 < len(ctx); i += 2 {
		line += fmt.Sprintf(" %v=%v", ctx[i], ctx[i+1])
	}
	if lvl == LvlError {
		line += fmt.Sprintf(" caller=%v", callerFrame())
	}
	fmt.Fprintln(out, c.Sprint(line))
}

func callerFrame() stack.Call {
	call := stack.Caller(3)
	return call
}

func (l *Logger) Error(msg string, ctx ...interface{}) { l.log(LvlError, msg, ctx...) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { l.log(LvlWarn, msg, ctx...) }
func (l *Logger) Info(msg string, ctx ...interface{})  { l.log(LvlInfo, msg, ctx...) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { l.log(LvlDebug, msg, ctx...) }
func (l *Logger) Trace(msg string, ctx ...interface{}) { l.log(LvlTrace, msg, ctx...) }

// New is a convenience used by packages that want an ad-hoc, unmoduled
// logger (e.g. cmd/ entrypoints before config has named a component).
func New() *Logger {
	return NewModuleLogger("")
}
