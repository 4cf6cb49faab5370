package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: FormatJSON, Output: &buf, Service: "hourshub"})

	l.Info("dropped")
	l.Warn("kept", "entry_id", "e-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "hourshub", record["service"])
	assert.Equal(t, "e-1", record["entry_id"])
}

func TestNew_TextByDefault(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Output = &buf

	New(opts).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
