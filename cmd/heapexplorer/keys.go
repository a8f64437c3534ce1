package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	// Workload
	Allocate key.Binding
	String   key.Binding
	Root     key.Binding
	Drop     key.Binding
	Protect  key.Binding
	Release  key.Binding

	// Collector
	Collect key.Binding
	Verify  key.Binding

	// Commands
	Copy     key.Binding
	Help     key.Binding
	Esc      key.Binding
	Quit     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Allocate: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "allocate batch"),
		),
		String: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "allocate large string"),
		),
		Root: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "root batch on stack"),
		),
		Drop: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "drop stack roots"),
		),
		Protect: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "protect batch"),
		),
		Release: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unprotect batch"),
		),
		Collect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "collect"),
		),
		Verify: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "verify invariants"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy stats JSON"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll log"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll log"),
		),
	}
}

// helpSections groups bindings for the help overlay.
func (k KeyMap) helpSections() []helpSection {
	return []helpSection{
		{"Workload", []key.Binding{k.Allocate, k.String, k.Root, k.Drop, k.Protect, k.Release}},
		{"Collector", []key.Binding{k.Collect, k.Verify}},
		{"General", []key.Binding{k.Copy, k.ScrollUp, k.ScrollDn, k.Help, k.Quit}},
	}
}

type helpSection struct {
	title    string
	bindings []key.Binding
}
