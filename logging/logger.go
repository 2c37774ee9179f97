// Package logging provides a context-scoped structured logger used across
// gatekeep. The interface is designed around uber-go/zap's sugared logger
// but keeps call sites decoupled from the implementation.
package logging

import "context"

type ctxkey struct {
	logger Logger
}

// With attaches a logger to the context.
//
// This can be used to create logging scopes like so:
//
//	ctx := logging.With(ctx, logger.Named("callback"))
//	v.Complete(ctx, code, state)
func With(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxkey{}, &ctxkey{
		logger: logger,
	})
}

// FromContext returns the scoped logger, or a no-op logger if none has been
// attached. Callers can rely on always getting a usable logger back.
func FromContext(ctx context.Context) Logger {
	c, ok := ctx.Value(ctxkey{}).(*ctxkey)
	if ok {
		return c.logger
	}
	return nopLogger{}
}

// Track adds a field to the current logging scope for the lifetime of the
// context. Tracked values persist back up the call-chain to the request
// middleware, so they appear on the final request log line. Do not use this
// inside loops without creating a new scope via With.
func Track(ctx context.Context, field string, value interface{}) {
	c, ok := ctx.Value(ctxkey{}).(*ctxkey)
	if ok {
		c.logger = c.logger.With(field, value)
	}
}

// Logger is the minimal structured logging surface gatekeep needs.
type Logger interface {
	Debug(args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Debugf(msg string, args ...interface{})
	Info(args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Infof(msg string, args ...interface{})
	Warn(args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Warnf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Errorf(msg string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(msg string, args ...interface{})

	// Named creates a child logger with the given name.
	Named(name string) Logger

	// With creates a child logger and attaches structured context to it.
	With(field string, value interface{}) Logger
}

func Debug(ctx context.Context, msg string) {
	FromContext(ctx).Debug(msg)
}

func Debugw(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Debugw(msg, fields...)
}

func Debugf(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Debugf(msg, args...)
}

func Info(ctx context.Context, msg string) {
	FromContext(ctx).Info(msg)
}

func Infow(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Infow(msg, fields...)
}

func Infof(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Infof(msg, args...)
}

func Warn(ctx context.Context, msg string) {
	FromContext(ctx).Warn(msg)
}

func Warnw(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Warnw(msg, fields...)
}

func Warnf(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Warnf(msg, args...)
}

func Error(ctx context.Context, msg string) {
	FromContext(ctx).Error(msg)
}

func Errorw(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Errorw(msg, fields...)
}

func Errorf(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Errorf(msg, args...)
}

// nopLogger discards everything. Returned by FromContext when no logger has
// been attached, which keeps library code and tests from needing nil checks.
type nopLogger struct{}

func (nopLogger) Debug(args ...interface{})                         {}
func (nopLogger) Debugw(msg string, keysAndValues ...interface{})   {}
func (nopLogger) Debugf(msg string, args ...interface{})            {}
func (nopLogger) Info(args ...interface{})                          {}
func (nopLogger) Infow(msg string, keysAndValues ...interface{})    {}
func (nopLogger) Infof(msg string, args ...interface{})             {}
func (nopLogger) Warn(args ...interface{})                          {}
func (nopLogger) Warnw(msg string, keysAndValues ...interface{})    {}
func (nopLogger) Warnf(msg string, args ...interface{})             {}
func (nopLogger) Error(args ...interface{})                         {}
func (nopLogger) Errorw(msg string, keysAndValues ...interface{})   {}
func (nopLogger) Errorf(msg string, args ...interface{})            {}
func (nopLogger) Fatal(args ...interface{})                         {}
func (nopLogger) Fatalf(msg string, args ...interface{})            {}
func (n nopLogger) Named(name string) Logger                        { return n }
func (n nopLogger) With(field string, value interface{}) Logger     { return n }
