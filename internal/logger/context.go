package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type loggerKey struct{}

// WithContext attaches l to ctx for code that only receives a context, such
// as notifiers called from a polling loop. A nil l leaves ctx unchanged.
func WithContext(ctx context.Context, l Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger attached by WithContext, or the shared
// stderr logger when there is none.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return stderrLogger()
}

// stderrLogger only lets warnings and errors through.
var stderrLogger = sync.OnceValue(func() Logger {
	l, err := New(Config{Level: "warn", Format: FormatJSON, OutputPaths: []string{"stderr"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: stderr fallback unavailable: %v\n", err)
		return NewNop()
	}
	return l.With(String("logger", "fallback"))
})
