package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgvdev/tgv/internal/align"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/layout"
	"github.com/tgvdev/tgv/internal/tracks"
)

// Fixed track heights; read lanes take the rest.
const (
	rulerRows    = 1
	geneRows     = 1
	overlayRows  = 1 // BED/VCF overlay, only when loaded
	seqRows      = 1
	coverageRows = 4
	statusRows   = 1
)

// View implements tea.Model. It is a pure projection of the model: equal
// inputs produce equal frames.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	switch m.mode {
	case ModeHelp:
		return m.renderHelp()
	case ModeContigList:
		return m.renderContigList()
	}

	var rows []string
	rows = append(rows, m.renderRuler())
	rows = append(rows, m.renderGeneTrack())
	if m.hasOverlay() {
		rows = append(rows, m.renderOverlay())
	}
	rows = append(rows, m.renderSequence())
	rows = append(rows, m.renderCoverage()...)
	rows = append(rows, m.renderReadLanes()...)
	rows = append(rows, m.renderStatusLine())
	return strings.Join(rows, "\n")
}

func (m Model) hasOverlay() bool {
	return len(m.opts.BedFeatures) > 0 || len(m.opts.Variants) > 0
}

func (m Model) readRows() int {
	fixed := rulerRows + geneRows + seqRows + coverageRows + statusRows
	if m.hasOverlay() {
		fixed += overlayRows
	}
	return max(m.height-fixed, 0)
}

// renderRuler draws tick coordinates across the window.
func (m Model) renderRuler() string {
	cols := m.window.Columns
	row := make([]byte, cols)
	for i := range row {
		row[i] = ' '
	}

	tick := niceTickSpacing(m.window.Width())
	for base := (m.window.Left/tick + 1) * tick; base < m.window.Right(); base += tick {
		col, ok := m.window.ColumnOf(base)
		if !ok {
			continue
		}
		label := formatBase(base)
		if col+len(label)+1 > cols {
			continue
		}
		row[col] = '|'
		copy(row[col+1:], label)
	}
	return m.styles.Muted.Render(string(row))
}

// niceTickSpacing picks a 1/2/5 x 10^k spacing giving ~4-8 ticks per window.
func niceTickSpacing(widthBases int) int {
	return layout.NiceMax(max(widthBases/6, 1))
}

func formatBase(n int) string {
	if n >= 1_000_000 {
		if n%1_000_000 == 0 {
			return fmt.Sprintf("%dM", n/1_000_000)
		}
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	}
	if n >= 10_000 {
		if n%1000 == 0 {
			return fmt.Sprintf("%dk", n/1000)
		}
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

// renderGeneTrack draws exon/CDS blocks, intron lines and gene names.
func (m Model) renderGeneTrack() string {
	cols := m.window.Columns
	cells := make([]styledCell, cols)

	if m.snapshot.Features == nil {
		if m.opts.Index == nil {
			return m.styles.Muted.Render(strings.Repeat(" ", cols))
		}
		return m.styles.Muted.Render(center("... loading features ...", cols))
	}

	for _, g := range m.snapshot.Features.Genes {
		m.paintGene(cells, g)
	}

	// Gene names over intron space where they fit.
	for _, g := range m.snapshot.Features.Genes {
		m.paintGeneName(cells, g)
	}
	return renderCells(cells, m.styles.Text)
}

type styledCell struct {
	ch    rune
	style *lipgloss.Style
}

func renderCells(cells []styledCell, fallback lipgloss.Style) string {
	var b strings.Builder
	for _, c := range cells {
		ch := c.ch
		if ch == 0 {
			ch = ' '
		}
		if c.style != nil {
			b.WriteString(c.style.Render(string(ch)))
		} else {
			b.WriteString(fallback.Render(string(ch)))
		}
	}
	return b.String()
}

func (m Model) paintGene(cells []styledCell, g tracks.Gene) {
	intronCh := '-'
	if g.Strand == genome.StrandReverse {
		intronCh = '<'
	} else if g.Strand == genome.StrandForward {
		intronCh = '>'
	}

	for col := range cells {
		base := m.window.BaseAtColumn(col)
		if base < g.TxStart || base >= g.TxEnd {
			continue
		}
		cells[col].ch = intronCh
		cells[col].style = &m.styles.Intron
	}
	for e := 0; e < g.ExonCount(); e++ {
		exon := g.Exon(e)
		for col := range cells {
			base := m.window.BaseAtColumn(col)
			if !exon.ContainsPos(base) {
				continue
			}
			cells[col].ch = '█'
			if base >= g.CdsStart && base < g.CdsEnd {
				cells[col].style = &m.styles.CDS
			} else {
				cells[col].style = &m.styles.Exon
			}
		}
	}
}

func (m Model) paintGeneName(cells []styledCell, g tracks.Gene) {
	col, ok := m.window.ColumnOf(g.TxStart)
	if !ok {
		if g.TxStart < m.window.Left && g.TxEnd > m.window.Left {
			col = 0
		} else {
			return
		}
	}
	name := " " + g.Name + " "
	if col+len(name) >= len(cells) {
		return
	}
	for i, r := range name {
		cells[col+i].ch = r
		cells[col+i].style = &m.styles.Accent
	}
}

// renderOverlay draws BED intervals and VCF variant markers on one line.
func (m Model) renderOverlay() string {
	cells := make([]styledCell, m.window.Columns)
	for _, f := range m.opts.BedFeatures {
		if f.Region.Contig != m.window.Contig.Name {
			continue
		}
		for col := range cells {
			if f.Region.ContainsPos(m.window.BaseAtColumn(col)) {
				cells[col].ch = '▀'
				cells[col].style = &m.styles.Accent
			}
		}
	}
	for _, v := range m.opts.Variants {
		if v.Contig != m.window.Contig.Name {
			continue
		}
		if col, ok := m.window.ColumnOf(v.Pos); ok {
			cells[col].ch = '▼'
			cells[col].style = &m.styles.Danger
		}
	}
	return renderCells(cells, m.styles.Muted)
}

// renderSequence draws the base row at single-base zoom and a compressed
// summary otherwise.
func (m Model) renderSequence() string {
	cols := m.window.Columns
	if !m.window.IsBasewise() {
		label := fmt.Sprintf("~ %s per column ~", formatBase(m.window.BasesPerCol))
		return m.styles.Muted.Render(center(label, cols))
	}
	if m.snapshot.Seq == nil {
		return m.styles.Muted.Render(center("... loading sequence ...", cols))
	}

	var b strings.Builder
	for col := 0; col < cols; col++ {
		base := m.snapshot.Seq.BaseAt(m.window.BaseAtColumn(col))
		b.WriteString(m.baseStyle(base).Render(string(rune(base))))
	}
	return b.String()
}

func (m Model) baseStyle(base byte) lipgloss.Style {
	if s, ok := m.styles.Bases[base]; ok {
		return s
	}
	return m.styles.Bases['N']
}

// renderCoverage draws the depth histogram, scaled to the next nice number.
func (m Model) renderCoverage() []string {
	cols := m.window.Columns
	rows := make([]string, coverageRows)
	if m.snapshot.Reads == nil {
		for i := range rows {
			rows[i] = strings.Repeat(" ", cols)
		}
		if m.opts.Alignments != nil && !m.alignDisabled {
			rows[coverageRows/2] = m.styles.Muted.Render(center("... loading alignments ...", cols))
		}
		return rows
	}

	cov := layout.Cover(m.window.Region(), m.snapshot.Reads.Reads)
	yMax := layout.NiceMax(cov.MaxDepth())
	mismatchCols := m.mismatchColumns(cov)

	heights := make([]int, cols) // filled eighths per column, tallest bar = 8*coverageRows
	for col := 0; col < cols; col++ {
		depth := 0
		for base := m.window.BaseAtColumn(col); base < m.window.BaseAtColumn(col+1); base++ {
			if d := cov.At(base).Total(); d > depth {
				depth = d
			}
		}
		heights[col] = depth * 8 * coverageRows / yMax
	}

	blocks := []rune(" ▁▂▃▄▅▆▇█")
	for rowIdx := 0; rowIdx < coverageRows; rowIdx++ {
		var b strings.Builder
		startCol := 0
		if rowIdx == 0 {
			// The y-axis max sits in the top-left corner of the histogram.
			label := fmt.Sprintf("%d|", yMax)
			if len(label)+1 < cols {
				b.WriteString(m.styles.Muted.Render(label))
				startCol = len(label)
			}
		}
		rowBase := (coverageRows - 1 - rowIdx) * 8
		for col := startCol; col < cols; col++ {
			fill := min(max(heights[col]-rowBase, 0), 8)
			style := m.styles.Coverage
			if mismatchCols[col] {
				style = m.styles.Mismatch
			}
			b.WriteString(style.Render(string(blocks[fill])))
		}
		rows[rowIdx] = b.String()
	}
	return rows
}

// mismatchColumns flags the screen columns where the tallies disagree with
// the reference, so the histogram highlights them. Without sequence (or with
// an all-N one) nothing flags.
func (m Model) mismatchColumns(cov layout.Coverage) map[int]bool {
	if m.snapshot.Seq == nil {
		return nil
	}
	ref := make([]byte, cov.Region.Len())
	for i := range ref {
		ref[i] = m.snapshot.Seq.BaseAt(cov.Region.Start + i)
	}
	out := make(map[int]bool)
	for _, pos := range layout.MismatchColumns(cov, ref, layout.MismatchThreshold) {
		if col, ok := m.window.ColumnOf(pos); ok {
			out[col] = true
		}
	}
	return out
}

// renderReadLanes draws the pileup from the scroll offset down.
func (m Model) renderReadLanes() []string {
	cols := m.window.Columns
	n := m.readRows()
	rows := make([]string, n)
	for i := range rows {
		lane := m.window.TopLane + i
		if m.snapshot.Reads == nil || lane >= m.lanes.Count {
			rows[i] = strings.Repeat(" ", cols)
			continue
		}
		rows[i] = m.renderLane(lane)
	}
	return rows
}

func (m Model) renderLane(lane int) string {
	cols := m.window.Columns
	cells := make([]styledCell, cols)

	for _, idx := range m.lanes.InLane(lane) {
		read := m.lanes.Reads[idx]
		m.paintRead(cells, read)
	}
	return renderCells(cells, m.styles.Text)
}

// paintRead draws one read's per-base ops into the lane cells.
func (m Model) paintRead(cells []styledCell, read align.Read) {
	strandStyle := &m.styles.Forward
	body := '█'
	if read.Strand == genome.StrandReverse {
		strandStyle = &m.styles.Reverse
	}

	for _, op := range read.Ops {
		col, ok := m.window.ColumnOf(op.Pos)
		if !ok {
			continue
		}
		switch op.Op {
		case align.OpMismatch:
			cells[col].ch = rune(op.Base)
			style := m.baseStyle(op.Base).Bold(true)
			cells[col].style = &style
		case align.OpMatch:
			if cells[col].ch == 0 {
				cells[col].ch = body
				cells[col].style = strandStyle
			}
		case align.OpDeletion:
			cells[col].ch = '─'
			cells[col].style = &m.styles.Deletion
		case align.OpRefSkip:
			cells[col].ch = '┄'
			cells[col].style = &m.styles.Deletion
		case align.OpSoftClip:
			cells[col].ch = rune(lower(op.Base))
			cells[col].style = &m.styles.SoftClip
		}
	}

	// Insertion markers sit on the base they follow.
	for _, ins := range read.Insertions {
		if col, ok := m.window.ColumnOf(ins.After); ok {
			cells[col].ch = '▎'
			cells[col].style = &m.styles.Insert
		}
	}

	// Direction arrows at the visible read ends.
	if read.Strand == genome.StrandReverse {
		if col, ok := m.window.ColumnOf(read.StackStart()); ok && cells[col].style == strandStyle {
			cells[col].ch = '◀'
		}
	} else {
		if col, ok := m.window.ColumnOf(read.StackEnd() - 1); ok && cells[col].style == strandStyle {
			cells[col].ch = '▶'
		}
	}
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

// renderStatusLine shows, by mode: the command line being edited, the error
// banner, or the status message plus the window locator.
func (m Model) renderStatusLine() string {
	cols := m.window.Columns

	switch m.mode {
	case ModeCommand:
		return m.cmdline.View()
	case ModeError:
		return m.styles.ErrorBar.Render(truncate("ERROR "+m.errMsg, cols))
	}

	locator := fmt.Sprintf("%s:%d-%d  %dx", m.window.Contig.Name,
		m.window.Left, m.window.Right()-1, m.window.BasesPerCol)
	if pending := m.reg.Pending(); pending != "" {
		if m.reg.AwaitingG() {
			pending += "-" // mid two-key motion, waiting for g, e or E
		}
		locator = pending + "  " + locator
	}

	left := m.status
	gap := cols - len(left) - len(locator) - 1
	if gap < 1 {
		left = truncate(left, max(cols-len(locator)-2, 0))
		gap = 1
	}
	return m.styles.StatusBar.Render(left + strings.Repeat(" ", gap) + locator)
}

func center(s string, width int) string {
	if len(s) >= width {
		return truncate(s, width)
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-pad-len(s))
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}

// readAtCell maps a terminal cell back to the read under it, if any.
func (m Model) readAtCell(x, y int) *align.Read {
	top := rulerRows + geneRows + seqRows + coverageRows
	if m.hasOverlay() {
		top += overlayRows
	}
	lane := m.window.TopLane + y - top
	if lane < 0 || lane >= m.lanes.Count {
		return nil
	}
	base := m.window.BaseAtColumn(x)
	for _, idx := range m.lanes.InLane(lane) {
		r := m.lanes.Reads[idx]
		if r.StackStart() <= base && base < r.StackEnd() {
			return &m.lanes.Reads[idx]
		}
	}
	return nil
}

func readSummary(r align.Read) string {
	return fmt.Sprintf("%s  %s  (%s)  MAPQ=%d", r.Name, r.Region, r.Strand, r.MapQ)
}
