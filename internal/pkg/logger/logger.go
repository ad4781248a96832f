// Package logger is a thin context-aware wrapper around a global zap logger.
package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var global atomic.Pointer[zap.SugaredLogger]

func init() {
	global.Store(zap.NewNop().Sugar())
}

// Init installs the process logger. level is a zap level name; json selects
// the production encoder.
func Init(level string, json bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	global.Store(l.Sugar())
	return nil
}

// Sync flushes buffered entries.
func Sync() {
	_ = global.Load().Sync()
}

// With returns a context carrying extra key/value fields for later log calls.
func With(ctx context.Context, kv ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, from(ctx).With(kv...))
}

func from(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return global.Load()
}

func Debugf(ctx context.Context, format string, args ...any) { from(ctx).Debugf(format, args...) }
func Infof(ctx context.Context, format string, args ...any)  { from(ctx).Infof(format, args...) }
func Warnf(ctx context.Context, format string, args ...any)  { from(ctx).Warnf(format, args...) }
func Errorf(ctx context.Context, format string, args ...any) { from(ctx).Errorf(format, args...) }

// Fatal logs err and exits the process.
func Fatal(ctx context.Context, err error) {
	from(ctx).Fatal(err)
}
