package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/pkg/value"
)

const (
	// batchSize is the number of chained objects one allocate keystroke builds.
	batchSize = 256

	// largeStringLen is long enough to force an external string buffer.
	largeStringLen = 64 * 1024

	// maxLogLines bounds the event log.
	maxLogLines = 500
)

// Model is the main application model
type Model struct {
	rt   *value.Runtime
	keys KeyMap

	// Most recent batch: its head object and the collection count at which
	// it was built. Only the head needs rooting since the batch is a chain.
	batch            value.Value
	batchCollections int
	rooted           bool
	protected        bool

	events   []string
	eventLog viewport.Model

	// UI state
	width    int
	height   int
	showHelp bool
	status   string
	err      error
}

// NewModel creates a model with a fresh heap.
func NewModel(opts heap.Options) (Model, error) {
	rt, err := value.New(opts)
	if err != nil {
		return Model{}, fmt.Errorf("create heap: %w", err)
	}
	m := Model{
		rt:       rt,
		keys:     DefaultKeyMap(),
		eventLog: viewport.New(0, 0),
		status:   "Press ? for help",
	}
	m.logEvent("heap ready, allocations per collection %d", opts.AllocationsPerCollection)
	return m, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Close releases the heap.
func (m Model) Close() error {
	return m.rt.Close()
}

// Heap returns the heap being explored.
func (m Model) Heap() *heap.Heap {
	return m.rt.Heap()
}

// batchAlive reports whether the last batch is still guaranteed to be
// allocated: either something roots it or no collection ran since it was built.
func (m Model) batchAlive() bool {
	if m.batch == value.Null {
		return false
	}
	if m.rooted || m.protected {
		return true
	}
	return m.Heap().Stats().Collections == m.batchCollections
}

func (m *Model) logEvent(format string, args ...any) {
	line := time.Now().Format("15:04:05") + "  " + fmt.Sprintf(format, args...)
	m.events = append(m.events, line)
	if len(m.events) > maxLogLines {
		m.events = m.events[len(m.events)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *Model) setError(err error) {
	m.status = "Error: " + err.Error()
	m.logEvent("error: %v", err)
}
