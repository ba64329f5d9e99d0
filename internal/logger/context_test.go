package logger_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
)

func TestWithContext_FromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	ctx := logger.WithContext(context.Background(), nop)

	if got := logger.FromContext(ctx); got != nop {
		t.Errorf("FromContext returned %v, want the same logger instance %v", got, nop)
	}
}

func TestWithContext_NilLoggerKeepsFallback(t *testing.T) {
	t.Parallel()

	ctx := logger.WithContext(context.Background(), nil)
	if logger.FromContext(ctx) == nil {
		t.Fatal("FromContext returned nil after WithContext(nil)")
	}
}

func TestFromContext_NoLogger_ReturnsUsableFallback(t *testing.T) {
	t.Parallel()

	fallback := logger.FromContext(context.Background())
	if fallback == nil {
		t.Fatal("FromContext on empty context returned nil, want non-nil fallback logger")
	}

	// Warn-level fallback filters these but they must not panic.
	fallback.Debug("debug message")
	fallback.Info("info message")
	fallback.Warn("message with field", logger.String("key", "value"))

	if again := logger.FromContext(context.Background()); again != fallback {
		t.Error("FromContext returned different fallback instances, want the same singleton")
	}
}

func TestNew_DevelopmentConsole(t *testing.T) {
	t.Parallel()

	l, err := logger.New(logger.Config{
		Level:       "debug",
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	child := l.With(logger.String("component", "test"))
	if child == l {
		t.Error("With should return a new logger instance")
	}
	child.Debug("visible in development mode", logger.Int("n", 1))
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	cfg := logger.Config{Format: "xml"}
	cfg.SetDefaults()

	if cfg.Level != logger.DefaultLevel {
		t.Errorf("Level = %q, want %q", cfg.Level, logger.DefaultLevel)
	}
	if cfg.Format != logger.FormatJSON {
		t.Errorf("Format = %q, want %q", cfg.Format, logger.FormatJSON)
	}
	if len(cfg.OutputPaths) != 1 || cfg.OutputPaths[0] != "stdout" {
		t.Errorf("OutputPaths = %v, want [stdout]", cfg.OutputPaths)
	}
}
