package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLog()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay swallows everything but its close keys
	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Allocate):
		err = m.allocateBatch()
	case key.Matches(msg, m.keys.String):
		err = m.allocateString()
	case key.Matches(msg, m.keys.Root):
		err = m.rootBatch()
	case key.Matches(msg, m.keys.Drop):
		err = m.dropRoots()
	case key.Matches(msg, m.keys.Protect):
		err = m.protectBatch()
	case key.Matches(msg, m.keys.Release):
		m.unprotectBatch()
	case key.Matches(msg, m.keys.Collect):
		m.collect()
	case key.Matches(msg, m.keys.Verify):
		err = m.verify()
	case key.Matches(msg, m.keys.Copy):
		err = m.copyStats()
	case key.Matches(msg, m.keys.ScrollUp):
		m.eventLog.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.ScrollDn):
		m.eventLog.LineDown(1)
		return m, nil
	default:
		return m, nil
	}

	if err != nil {
		m.setError(err)
	} else {
		m.status = "OK"
	}
	return m, nil
}
