package viewer

import (
	"fmt"
	"strings"
)

// helpEntries is the keybinding table shown by :h.
var helpEntries = []struct{ key, desc string }{
	{"h / l", "Pan left / right (repeat prefix scales)"},
	{"y / p", "Pan one window-width left / right"},
	{"j / k", "Scroll read lanes down / up"},
	{"{ / }", "Scroll read lanes by 30"},
	{"gg / G", "Scroll lanes to top / bottom"},
	{"z / o", "Zoom in / out"},
	{"w / b", "Next / previous exon start"},
	{"e / ge", "Next / previous exon end"},
	{"W / B", "Next / previous gene start"},
	{"E / gE", "Next / previous gene end"},
	{":1234", "Go to position on current contig"},
	{":chr1:1234", "Go to position on a contig"},
	{":TP53", "Go to a named gene, centered"},
	{":ls", "Contig switcher"},
	{":h", "This help"},
	{":q", "Quit"},
	{"Esc", "Back to normal mode"},
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("tgv — key bindings"))
	b.WriteString("\n\n")
	for _, e := range helpEntries {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			m.styles.Accent.Render(fmt.Sprintf("%-12s", e.key)),
			m.styles.Text.Render(e.desc)))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("  press any key to return"))
	return b.String()
}
