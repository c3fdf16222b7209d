package viewer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// handleContigListKey drives the contig switcher scene.
func (m Model) handleContigListKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if m.contigCursor < m.opts.Contigs.Len()-1 {
			m.contigCursor++
		}
	case "k", "up":
		if m.contigCursor > 0 {
			m.contigCursor--
		}
	case "g":
		m.contigCursor = 0
	case "G":
		m.contigCursor = m.opts.Contigs.Len() - 1
	case "enter":
		contig, ok := m.opts.Contigs.At(m.contigCursor)
		if !ok {
			m.mode = ModeNormal
			return m, nil
		}
		m.mode = ModeNormal
		m.window.Contig = contig
		m.window.SetLeft(1)
		m.window.TopLane = 0
		cmd := m.requestData()
		return m, cmd
	case "q":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m Model) renderContigList() string {
	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("contigs"))
	b.WriteString("\n\n")

	visible := max(m.height-4, 1)
	start := 0
	if m.contigCursor >= visible {
		start = m.contigCursor - visible + 1
	}

	contigs := m.opts.Contigs.Contigs()
	for i := start; i < len(contigs) && i < start+visible; i++ {
		c := contigs[i]
		line := fmt.Sprintf("  %-20s %12s", c.Name, formatBase(c.Length))
		if i == m.contigCursor {
			b.WriteString(m.styles.Accent.Render("▸" + line[1:]))
		} else {
			b.WriteString(m.styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("\n  j/k move · Enter select · Esc cancel"))
	return b.String()
}
