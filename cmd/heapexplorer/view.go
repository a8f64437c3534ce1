package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/cellheap/heap/alloc"
)

// Rows reserved for header, stats and status around the event log.
const chromeHeight = 16

// View renders the entire UI
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderArenas(),
		m.renderStats(),
		m.renderLog(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render("Cell Heap Explorer"),
		"  ",
		subtleStyle.Render("state: "+m.Heap().State().String()),
	)
}

// renderArenas draws one glyph per block, colored by occupancy.
func (m Model) renderArenas() string {
	primary, numbers := m.Heap().Arenas()
	width := m.paneWidth()
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderArena(primary, width),
		m.renderArena(numbers, width),
	)
}

func (m Model) renderArena(a *alloc.Arena, width int) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render(fmt.Sprintf("%s arena", a.Name())))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %d-byte cells, %d blocks", a.CellSize(), a.NumBlocks())))
	b.WriteString("\n")

	if a.NumBlocks() == 0 {
		b.WriteString(blockEmptyStyle.Render("(no blocks)"))
		return paneStyle.Width(width).Render(b.String())
	}
	perRow := max(width-4, 8)
	for i, blk := range a.Blocks() {
		if i > 0 && i%perRow == 0 {
			b.WriteString("\n")
		}
		b.WriteString(blockGlyph(blk))
	}
	return paneStyle.Width(width).Render(b.String())
}

func blockGlyph(b *alloc.Block) string {
	used, cells := b.Used(), b.NumCells()
	switch {
	case used == 0:
		return blockEmptyStyle.Render("·")
	case used == cells:
		return blockFullStyle.Render("█")
	case used*2 >= cells:
		return blockHighStyle.Render("▓")
	default:
		return blockLowStyle.Render("░")
	}
}

func (m Model) renderStats() string {
	st := m.Heap().Stats()
	field := func(label string, v any) string {
		return labelStyle.Render(label+": ") + valueStyle.Render(fmt.Sprint(v))
	}
	lines := []string{
		strings.Join([]string{
			field("size", fmt.Sprintf("%d B", st.Size)),
			field("live", st.Primary.Live+st.Numbers.Live),
			field("extra cost", st.ExtraCost),
			field("external", fmt.Sprintf("%d B", m.rt.ExternalBytes())),
		}, "   "),
		strings.Join([]string{
			field("collections", st.Collections),
			field("last reclaimed", st.LastReclaimed),
			field("protected", st.Protected),
			field("stack depth", m.Heap().Stack().Len()),
			field("batch", m.batchLabel()),
		}, "   "),
	}
	return paneStyle.Width(m.paneWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) batchLabel() string {
	switch {
	case !m.batchAlive():
		return "none"
	case m.rooted && m.protected:
		return "rooted+protected"
	case m.rooted:
		return "rooted"
	case m.protected:
		return "protected"
	default:
		return "unrooted"
	}
}

func (m Model) renderLog() string {
	return paneStyle.Width(m.paneWidth()).Render(m.eventLog.View())
}

func (m Model) renderStatus() string {
	if strings.HasPrefix(m.status, "Error:") {
		return statusErrorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status + "  |  ? help  q quit")
}

func (m Model) paneWidth() int {
	if m.width <= 2 {
		return 78
	}
	return m.width - 2
}

func (m *Model) resizeLog() {
	m.eventLog.Width = max(m.paneWidth()-4, 10)
	m.eventLog.Height = max(m.height-chromeHeight, 3)
	m.refreshLog()
}

func (m *Model) refreshLog() {
	m.eventLog.SetContent(strings.Join(m.events, "\n"))
	m.eventLog.GotoBottom()
}

func (m Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range m.keys.helpSections() {
		b.WriteString(helpSectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, kb := range sec.bindings {
			h := kb.Help()
			b.WriteString(helpKeyStyle.Render(h.Key) + h.Desc + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("Press ? or esc to close"))

	fg := staticView(helpBoxStyle.Render(b.String()))
	base := m.renderMain()
	if m.width > 0 && m.height > 0 {
		base = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, base)
	}
	bg := staticView(base)
	return overlay.New(fg, bg, overlay.Center, overlay.Center, 0, 0).View()
}

// staticView adapts pre-rendered content to tea.Model for the overlay.
type staticView string

func (v staticView) Init() tea.Cmd                       { return nil }
func (v staticView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v staticView) View() string                        { return string(v) }
