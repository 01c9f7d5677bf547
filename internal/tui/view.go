package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/jackzampolin/destinator/internal/annot"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

const keyHelp = "←/→ page  ↑/↓ select  +/- zoom  p preview  : command  ctrl+s save  esc cancel  ? help"

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	m.writeLine(&b, headerStyle.Render(m.header()))
	m.writeLine(&b, "")

	for _, row := range m.destinationRows() {
		m.writeLine(&b, row)
	}
	m.writeLine(&b, "")

	switch {
	case m.statusErr:
		m.writeLine(&b, errorStyle.Render(m.status))
	case m.status != "":
		m.writeLine(&b, statusStyle.Render(m.status))
	default:
		m.writeLine(&b, "")
	}

	switch m.mode {
	case modeCommand:
		m.writeLine(&b, m.input.View())
	case modeConfirmCancel:
		m.writeLine(&b, "discard unsaved changes? (y/n)")
	default:
		m.writeLine(&b, faintStyle.Render(keyHelp))
	}

	if m.showHelp {
		m.writeLine(&b, "")
		for _, u := range Usage() {
			m.writeLine(&b, faintStyle.Render("  :"+u))
		}
	}
	return b.String()
}

func (m *Model) header() string {
	s := fmt.Sprintf("%s  page %d/%d  zoom %.2fx  %d links",
		filepath.Base(m.sess.Path()), m.sess.Page()+1, m.sess.PageCount(), m.sess.Zoom(), m.sess.Store().LinkCount())
	if m.sess.Dragging() {
		s += "  dragging"
	}
	return s
}

// destinationRows lists destinations in a window that keeps the selection
// visible.
func (m *Model) destinationRows() []string {
	store := m.sess.Store()
	dests := store.Destinations()
	if len(dests) == 0 {
		return []string{faintStyle.Render("  no destinations, add one with :add <title>")}
	}

	rows := len(dests)
	if m.height > 0 {
		rows = min(rows, max(m.height-8, 3))
	}
	start := 0
	if sel := m.sess.Selected(); sel >= rows {
		start = sel - rows + 1
	}

	out := make([]string, 0, rows)
	for i := start; i < start+rows && i < len(dests); i++ {
		d := dests[i]
		row := fmt.Sprintf("%4d  %-28s %-18s %d links", i+1, d.ID, positionLabel(store, d), store.LinksTo(d.ID))
		if i == m.sess.Selected() {
			out = append(out, selectedStyle.Render("> "+row))
			continue
		}
		out = append(out, "  "+row)
	}
	return out
}

func positionLabel(store *annot.Store, d annot.Destination) string {
	if d.Kind == annot.KindExternal {
		return "url"
	}
	pos, ok := store.Position(d.ID)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("p%d %.0f,%.0f", pos.Page+1, pos.X, pos.Y)
}

func (m *Model) writeLine(b *strings.Builder, s string) {
	if m.width > 0 {
		s = truncate.StringWithTail(s, uint(m.width), "…")
	}
	b.WriteString(s)
	b.WriteByte('\n')
}
