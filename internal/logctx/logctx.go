// Package logctx passes request-scoped loggers through context.Context
// so call chains can pick up enriched log fields (uri, phase, format)
// without threading a logger argument everywhere.
//
// The top level attaches a logger with WithLogger; callees recover it
// with FromContext and may re-attach an enriched copy for the calls
// below them.
package logctx

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ctxKey keeps the context entry private to this package.
type ctxKey struct{}

var fallback = zerolog.New(os.Stderr).With().Timestamp().Logger()

// DefaultLogger returns the logger used when a context carries none:
// JSON to stderr with timestamps, until SetDefaultLogger replaces it.
func DefaultLogger() zerolog.Logger {
	return fallback
}

// SetDefaultLogger replaces the fallback logger. Call it during
// startup; it must not race with FromContext.
func SetDefaultLogger(l zerolog.Logger) {
	fallback = l
}

// WithLogger attaches a logger to ctx for FromContext to find.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx, or the fallback when
// ctx is nil or carries none. It never returns a disabled zero logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return DefaultLogger()
	}
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return DefaultLogger()
}

// WithStr re-attaches the context logger with a string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Str(key, value).Logger())
}

// WithInt re-attaches the context logger with an int field added.
func WithInt(ctx context.Context, key string, value int) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Int(key, value).Logger())
}

// NewConfiguredLogger builds a standalone logger honoring the debug
// and human flags, mirroring the process logger configuration.
func NewConfiguredLogger(debug, human bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var w io.Writer = os.Stderr
	if human {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
