package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/distplan/util/log"
)

func withBuffer(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	buf := &bytes.Buffer{}
	log.SetDefault(buf, level)
	return buf
}

func TestTagsAreAppended(t *testing.T) {
	buf := withBuffer(t, slog.LevelInfo)
	ctx := log.AddTags(context.Background(), "query", "q1")
	ctx = log.AddTags(ctx, "node", 3)
	log.Infof(ctx, "rendered %d nodes", 4)
	out := buf.String()
	assert.Contains(t, out, `msg="rendered 4 nodes"`)
	assert.Contains(t, out, "query=q1")
	assert.Contains(t, out, "node=3")
}

func TestLevelFiltering(t *testing.T) {
	buf := withBuffer(t, slog.LevelWarn)
	ctx := context.Background()
	log.Infow(ctx, "hidden")
	log.Debugf(ctx, "hidden")
	log.Warnw(ctx, "shown", "key", "value")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "key=value")
}

func TestAddTagsOddArguments(t *testing.T) {
	assert.Panics(t, func() {
		log.AddTags(context.Background(), "key")
	})
}

func TestTime(t *testing.T) {
	buf := withBuffer(t, slog.LevelDebug)
	ctx := log.AddTags(context.Background(), "query", "q1")
	func() {
		defer log.Time(ctx, "render plan")()
	}()
	out := buf.String()
	assert.Contains(t, out, `msg="render plan"`)
	assert.Contains(t, out, "elapsed=")
	assert.Contains(t, out, "query=q1")
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		assertion string
		input     string
		expected  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			level, err := log.ParseLevel(c.input)
			require.NoError(t, err)
			assert.Equal(t, c.expected, level)
		})
	}
	_, err := log.ParseLevel("verbose")
	require.Error(t, err)
}
