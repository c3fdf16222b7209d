package viewer

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors for the viewer tracks and chrome.
type Theme struct {
	Name string

	Text   string
	Muted  string
	Accent string
	Danger string
	Warn   string

	// Base colors follow the conventional A/C/G/T coloring; no attempt is
	// made to match IGV's palette.
	BaseA string
	BaseC string
	BaseG string
	BaseT string
	BaseN string

	Coverage string
	Mismatch string
	Deletion string
	SoftClip string
	Insert   string
	Forward  string
	Reverse  string
	Exon     string
	CDS      string
	Intron   string
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Text   lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Danger lipgloss.Style
	Warn   lipgloss.Style

	Bases    map[byte]lipgloss.Style
	Coverage lipgloss.Style
	Mismatch lipgloss.Style
	Deletion lipgloss.Style
	SoftClip lipgloss.Style
	Insert   lipgloss.Style
	Forward  lipgloss.Style
	Reverse  lipgloss.Style
	Exon     lipgloss.Style
	CDS      lipgloss.Style
	Intron   lipgloss.Style

	StatusBar lipgloss.Style
	ErrorBar  lipgloss.Style
}

// Styles builds the style set for the theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:   fg(t.Text),
		Muted:  fg(t.Muted),
		Accent: fg(t.Accent),
		Danger: fg(t.Danger).Bold(true),
		Warn:   fg(t.Warn),

		Bases: map[byte]lipgloss.Style{
			'A': fg(t.BaseA),
			'C': fg(t.BaseC),
			'G': fg(t.BaseG),
			'T': fg(t.BaseT),
			'N': fg(t.BaseN),
		},
		Coverage: fg(t.Coverage),
		Mismatch: fg(t.Mismatch).Bold(true),
		Deletion: fg(t.Muted),
		SoftClip: fg(t.SoftClip),
		Insert:   fg(t.Insert).Bold(true),
		Forward:  fg(t.Forward),
		Reverse:  fg(t.Reverse),
		Exon:     fg(t.Exon).Bold(true),
		CDS:      fg(t.CDS),
		Intron:   fg(t.Intron),

		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)).Faint(false),
		ErrorBar:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
	}
}

var themes = []Theme{
	{
		Name:     "Default",
		Text:     "#c9d1d9",
		Muted:    "#6e7681",
		Accent:   "#58a6ff",
		Danger:   "#f85149",
		Warn:     "#d29922",
		BaseA:    "#3fb950",
		BaseC:    "#58a6ff",
		BaseG:    "#d29922",
		BaseT:    "#f85149",
		BaseN:    "#6e7681",
		Coverage: "#8b949e",
		Mismatch: "#f85149",
		Deletion: "#6e7681",
		SoftClip: "#bc8cff",
		Insert:   "#bc8cff",
		Forward:  "#8b949e",
		Reverse:  "#79c0ff",
		Exon:     "#3fb950",
		CDS:      "#2ea043",
		Intron:   "#6e7681",
	},
	{
		Name:     "Light",
		Text:     "#24292f",
		Muted:    "#57606a",
		Accent:   "#0969da",
		Danger:   "#cf222e",
		Warn:     "#9a6700",
		BaseA:    "#1a7f37",
		BaseC:    "#0969da",
		BaseG:    "#9a6700",
		BaseT:    "#cf222e",
		BaseN:    "#57606a",
		Coverage: "#57606a",
		Mismatch: "#cf222e",
		Deletion: "#8c959f",
		SoftClip: "#8250df",
		Insert:   "#8250df",
		Forward:  "#57606a",
		Reverse:  "#0969da",
		Exon:     "#1a7f37",
		CDS:      "#116329",
		Intron:   "#8c959f",
	},
}

// GetTheme returns the named theme, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}
