// Package clog layers named logging contexts over apex/log. Each subsystem in
// driftd (for example the committer) logs through its own context, which can be
// given its own level and output without disturbing the daemon's global logger.
package clog

import (
	"fmt"
	"io"
	"sync"

	"github.com/apex/log"
)

// ContextLogger holds the global logger plus any per-context loggers that have
// been registered. A context that was never registered falls through to the
// global logger, tagged with the context name.
type ContextLogger struct {
	GlobalLogger   *log.Logger
	ContextLoggers sync.Map
}

const GlobalLoggerCtx = "global"

func NewContextLogger(globalLoggerWriter io.WriteCloser) *ContextLogger {
	return &ContextLogger{
		GlobalLogger: &log.Logger{
			Handler: NewHandler(globalLoggerWriter),
			Level:   log.InfoLevel,
		},
	}
}

// AddLoggingContext registers a dedicated logger for ctx writing to w. Until a
// context is registered UsingCtx falls back to the global logger.
func (l *ContextLogger) AddLoggingContext(ctx string, w io.WriteCloser) {
	l.ContextLoggers.Store(ctx, &log.Logger{
		Handler: NewHandler(w),
		Level:   log.InfoLevel,
	})
}

func (l *ContextLogger) RemoveLoggingContext(ctx string) {
	logger, ok := l.ContextLoggers.LoadAndDelete(ctx)
	if !ok {
		return
	}

	if h := handlerOf(logger); h != nil {
		h.Close()
	}
}

// SetLevel changes the level for one context. Setting the level of an
// unregistered context is a no-op; the global context is always present.
func (l *ContextLogger) SetLevel(ctx string, level log.Level) {
	if logger := l.contextLogger(ctx); logger != nil {
		logger.Level = level
	}
}

func (l *ContextLogger) SetGlobalLoggerLevel(level log.Level) {
	l.SetLevel(GlobalLoggerCtx, level)
}

func (l *ContextLogger) SetLevelFromString(ctx, s string) error {
	level, err := log.ParseLevel(s)
	if err != nil {
		return err
	}

	l.SetLevel(ctx, level)

	return nil
}

func (l *ContextLogger) SetGlobalLoggerLevelFromString(s string) error {
	return l.SetLevelFromString(GlobalLoggerCtx, s)
}

func (l *ContextLogger) SetOutput(ctx string, w io.WriteCloser) error {
	handler := handlerOf(l.contextLogger(ctx))
	if handler == nil {
		return fmt.Errorf("no such context %s", ctx)
	}

	handler.SetOutput(w)
	return nil
}

func (l *ContextLogger) SetGlobalOutput(w io.WriteCloser) error {
	return l.SetOutput(GlobalLoggerCtx, w)
}

// UsingCtx returns an entry for logging within ctx. Every line carries a ctx
// field so interleaved output from different subsystems stays attributable.
func (l *ContextLogger) UsingCtx(ctx string) *log.Entry {
	logger := l.contextLogger(ctx)
	if logger == nil {
		logger = l.GlobalLogger
	}
	return logger.WithField("ctx", ctx)
}

func (l *ContextLogger) Global() *log.Entry {
	return l.UsingCtx(GlobalLoggerCtx)
}

func (l *ContextLogger) contextLogger(ctx string) *log.Logger {
	if ctx == GlobalLoggerCtx {
		return l.GlobalLogger
	}

	entry, ok := l.ContextLoggers.Load(ctx)
	if !ok {
		return nil
	}

	logger, ok := entry.(*log.Logger)
	if !ok {
		return nil
	}
	return logger
}

func handlerOf(logger interface{}) *Handler {
	clogger, ok := logger.(*log.Logger)
	if !ok || clogger == nil {
		return nil
	}

	h, ok := clogger.Handler.(*Handler)
	if !ok {
		return nil
	}
	return h
}
