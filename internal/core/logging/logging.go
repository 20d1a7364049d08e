// Package logging defines the structured logging contract JungleBus
// components use, and adapts it to and from Watermill's LoggerAdapter so a
// single logger can be shared with library code that expects one.
package logging

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// Fields represents structured logging key/value pairs.
type Fields map[string]any

// Logger is the minimal logging contract required by JungleBus components.
type Logger interface {
	With(fields Fields) Logger
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Error(msg string, err error, fields Fields)
	Trace(msg string, fields Fields)
}

var identityLevelMapping = map[slog.Level]slog.Level{
	slog.LevelDebug: slog.LevelDebug,
	slog.LevelInfo:  slog.LevelInfo,
	slog.LevelWarn:  slog.LevelWarn,
	slog.LevelError: slog.LevelError,
}

// NewSlogLogger wraps a slog.Logger so it satisfies Logger.
func NewSlogLogger(log *slog.Logger) Logger {
	if log == nil {
		panic("junglebus: slog logger cannot be nil")
	}
	return NewWatermillLogger(watermill.NewSlogLoggerWithLevelMapping(log, identityLevelMapping))
}

// NewWatermillLogger wraps an existing Watermill LoggerAdapter.
func NewWatermillLogger(logger watermill.LoggerAdapter) Logger {
	if logger == nil {
		panic("junglebus: watermill logger cannot be nil")
	}
	return &watermillLogger{inner: logger}
}

type watermillLogger struct {
	inner watermill.LoggerAdapter
}

func (w *watermillLogger) With(fields Fields) Logger {
	return &watermillLogger{inner: w.inner.With(toWatermillFields(fields))}
}

func (w *watermillLogger) Debug(msg string, fields Fields) {
	w.inner.Debug(msg, toWatermillFields(fields))
}

func (w *watermillLogger) Info(msg string, fields Fields) {
	w.inner.Info(msg, toWatermillFields(fields))
}

func (w *watermillLogger) Error(msg string, err error, fields Fields) {
	w.inner.Error(msg, err, toWatermillFields(fields))
}

func (w *watermillLogger) Trace(msg string, fields Fields) {
	w.inner.Trace(msg, toWatermillFields(fields))
}

// ToWatermillAdapter exposes a Logger as a watermill.LoggerAdapter so it can
// be handed to library code that expects one.
func ToWatermillAdapter(log Logger) watermill.LoggerAdapter {
	if log == nil {
		panic("junglebus: Logger cannot be nil")
	}
	return &loggerAdapter{base: log}
}

type loggerAdapter struct {
	base Logger
}

func (a *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.base.Error(msg, err, fromWatermillFields(fields))
}

func (a *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.base.Info(msg, fromWatermillFields(fields))
}

func (a *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.base.Debug(msg, fromWatermillFields(fields))
}

func (a *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.base.Trace(msg, fromWatermillFields(fields))
}

func (a *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{base: a.base.With(fromWatermillFields(fields))}
}

func toWatermillFields(fields Fields) watermill.LogFields {
	if len(fields) == 0 {
		return nil
	}
	return watermill.LogFields(fields)
}

func fromWatermillFields(fields watermill.LogFields) Fields {
	if len(fields) == 0 {
		return nil
	}
	return Fields(fields)
}

// Nop returns a Logger that discards everything. Useful as a safe default
// when a caller builds a bus without providing its own logger.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) With(Fields) Logger         { return nopLogger{} }
func (nopLogger) Debug(string, Fields)       {}
func (nopLogger) Info(string, Fields)        {}
func (nopLogger) Error(string, error, Fields) {}
func (nopLogger) Trace(string, Fields)       {}
