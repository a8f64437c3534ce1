package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDisabledDiscards(t *testing.T) {
	t.Cleanup(func() { _ = Init(Options{}) })

	require.NoError(t, Init(Options{Enabled: false}))
	require.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInitTextLevel(t *testing.T) {
	t.Cleanup(func() { _ = Init(Options{}) })

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf}))

	Debug("hidden")
	Info("block mapped", "arena", "primary")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "block mapped")
	require.Contains(t, buf.String(), "arena=primary")
}

func TestInitJSON(t *testing.T) {
	t.Cleanup(func() { _ = Init(Options{}) })

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf, Level: slog.LevelDebug, JSON: true}))

	Debug("collect", "reclaimed", 3)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "collect", rec["msg"])
	require.EqualValues(t, 3, rec["reclaimed"])
}
