package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	log := Get()
	if log == nil {
		t.Fatal("expected a logger")
	}

	// Logging must not panic with any field shape.
	ctx := context.Background()
	log.Info(ctx, "info line", String("k", "v"), Int("n", 1))
	log.Debug(ctx, "debug line", Float64("f", 1.5), Bool("b", true))
	log.Warn(ctx, "warn line", Any("x", map[string]int{"a": 1}))
	log.Error(ctx, "error line", Error(nil))

	named := log.Named("sub")
	if named == nil {
		t.Fatal("expected a named logger")
	}
	named.Info(ctx, "named line")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
	}
	for in, want := range cases {
		if err := SetLevelString(in); err != nil {
			t.Errorf("level %q: unexpected error %v", in, err)
			continue
		}
		if got := levelVar.Level(); got != want {
			t.Errorf("level %q: expected %v, got %v", in, want, got)
		}
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected unknown level to error")
	}
}
