package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "push done", "pushed", 1)
	log.Info(ctx, "sync pass finished", "pulled", 2)
	log.Warn(ctx, "sync error", "error", "boom")
	log.Error(ctx, "failed to persist store", "attempt", 4)

	out := buf.String()
	for _, want := range []string{
		`level=DEBUG msg="push done" pushed=1`,
		`level=INFO msg="sync pass finished" pulled=2`,
		`level=WARN msg="sync error" error=boom`,
		`level=ERROR msg="failed to persist store" attempt=4`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_RespectsLevel(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelWarn)
	ctx := ContextWith(context.Background(), "pass", 1)

	log.Debug(ctx, "hidden")
	log.Info(ctx, "hidden")
	assert.Empty(t, buf.String())

	log.Warn(ctx, "shown")
	assert.Contains(t, buf.String(), "msg=shown pass=1")
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)

	log.With("backend", "drive").Info(context.Background(), "hello", "k", "v")

	assert.Contains(t, buf.String(), "msg=hello backend=drive k=v")
}

func TestSlogLogger_ContextAttributes(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)

	ctx := ContextWith(context.Background(), "pass", 7)
	ctx = ContextWith(ctx, "phase", "pull")
	log.Info(ctx, "pull done", "fetched", 3)

	assert.Contains(t, buf.String(), "pass=7 phase=pull fetched=3")
}

func TestContextWith(t *testing.T) {
	base := context.Background()
	require.Equal(t, base, ContextWith(base), "no pairs keep the context")

	outer := ContextWith(base, "a", 1)
	inner := ContextWith(outer, "b", 2)

	assert.Equal(t, []any{"a", 1}, attrsFrom(outer), "outer context is not modified")
	assert.Equal(t, []any{"a", 1, "b", 2}, attrsFrom(inner))
}
