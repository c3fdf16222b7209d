package genome

// ViewWindow is the currently displayed slice of the genome: a contig, the
// left-most displayed base, the zoom factor (bases per terminal column) and
// the column count of the terminal area. TopLane is the vertical scroll
// offset into the read pileup.
type ViewWindow struct {
	Contig      Contig
	Left        int // 1-based, inclusive
	BasesPerCol int // horizontal zoom; 1 = single-base resolution
	Columns     int
	TopLane     int // 0-based
}

// NewViewWindow returns a clamped single-base window starting at left.
func NewViewWindow(contig Contig, left, columns int) ViewWindow {
	w := ViewWindow{Contig: contig, Left: left, BasesPerCol: 1, Columns: columns}
	w.clamp()
	return w
}

// Width returns the number of bases the window covers.
func (w ViewWindow) Width() int { return w.BasesPerCol * w.Columns }

// Right returns the exclusive right bound in base coordinates.
func (w ViewWindow) Right() int { return w.Left + w.Width() }

// Region returns the covered interval.
func (w ViewWindow) Region() Region {
	return Region{Contig: w.Contig.Name, Start: w.Left, End: w.Right()}
}

// Middle returns the 1-based base at the window center.
func (w ViewWindow) Middle() int { return w.Left + w.Width()/2 }

// IsBasewise reports single-base resolution.
func (w ViewWindow) IsBasewise() bool { return w.BasesPerCol == 1 }

// maxBasesPerCol is the zoom cap: one window spans at most the full contig.
func (w ViewWindow) maxBasesPerCol() int {
	if w.Columns <= 0 || w.Contig.Length <= 0 {
		return 1
	}
	return max(w.Contig.Length/w.Columns, 1)
}

// clamp pulls the window back inside the contig. The window never starts
// before base 1 and never extends past contig end when the contig fits.
func (w *ViewWindow) clamp() {
	if w.BasesPerCol < 1 {
		w.BasesPerCol = 1
	}
	if m := w.maxBasesPerCol(); w.BasesPerCol > m {
		w.BasesPerCol = m
	}
	if w.Contig.Length > 0 && w.Right() > w.Contig.Length+1 {
		w.Left = w.Contig.Length + 1 - w.Width()
	}
	if w.Left < 1 {
		w.Left = 1
	}
	if w.TopLane < 0 {
		w.TopLane = 0
	}
}

// Pan shifts the window by delta bases (negative = left) and clamps.
// It returns true when the left bound actually moved.
func (w *ViewWindow) Pan(delta int) bool {
	before := w.Left
	w.Left += delta
	w.clamp()
	return w.Left != before
}

// SetLeft moves the window's left bound and clamps.
func (w *ViewWindow) SetLeft(left int) {
	w.Left = left
	w.clamp()
}

// CenterOn places the middle of the window at pos and clamps.
func (w *ViewWindow) CenterOn(pos int) {
	w.Left = pos - w.Width()/2
	w.clamp()
}

// Resize updates the column count, keeping the window center stable.
func (w *ViewWindow) Resize(columns int) {
	if columns <= 0 {
		return
	}
	mid := w.Middle()
	w.Columns = columns
	w.CenterOn(mid)
}

// ZoomIn divides bases-per-column by factor, flooring at 1. Zooming in at
// single-base resolution is a no-op. The window center is preserved.
func (w *ViewWindow) ZoomIn(factor int) {
	if factor <= 1 || w.IsBasewise() {
		return
	}
	mid := w.Middle()
	w.BasesPerCol = max(w.BasesPerCol/factor, 1)
	w.CenterOn(mid)
}

// ZoomOut multiplies bases-per-column by factor, capped so that one window
// spans at most the full contig. The window center is preserved.
func (w *ViewWindow) ZoomOut(factor int) {
	if factor <= 1 {
		return
	}
	mid := w.Middle()
	w.BasesPerCol = min(w.BasesPerCol*factor, w.maxBasesPerCol())
	w.CenterOn(mid)
}

// ScrollLanes moves the pileup scroll offset by delta lanes (negative = up),
// clamped to [0, maxLane].
func (w *ViewWindow) ScrollLanes(delta, maxLane int) {
	w.TopLane += delta
	if maxLane < 0 {
		maxLane = 0
	}
	if w.TopLane > maxLane {
		w.TopLane = maxLane
	}
	if w.TopLane < 0 {
		w.TopLane = 0
	}
}

// ColumnOf maps a 1-based base position to a 0-based screen column.
// ok is false when the base is outside the window.
func (w ViewWindow) ColumnOf(pos int) (int, bool) {
	if pos < w.Left || pos >= w.Right() {
		return 0, false
	}
	return (pos - w.Left) / w.BasesPerCol, true
}

// BaseAtColumn maps a 0-based screen column to the first 1-based base it
// displays.
func (w ViewWindow) BaseAtColumn(col int) int {
	return w.Left + col*w.BasesPerCol
}
