package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/heap"
)

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	t     *testing.T
	model Model
}

// NewTestHelper creates a test helper around a fresh heap. Automatic
// collection is effectively off so tests decide when cycles run.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	m, err := NewModel(heap.Options{AllocationsPerCollection: 1 << 30, StackWords: 1024})
	require.NoError(t, err)
	h := &TestHelper{t: t, model: m}
	t.Cleanup(func() { _ = h.model.Close() })
	return h
}

// SendKey simulates a key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	msg := tea.KeyMsg{Type: keyType}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	msg := tea.WindowSizeMsg{Width: width, Height: height}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// GetView returns the rendered view
func (h *TestHelper) GetView() string {
	return h.model.View()
}
