package viewer

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgvdev/tgv/internal/align"
	"github.com/tgvdev/tgv/internal/command"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/layout"
	"github.com/tgvdev/tgv/internal/tgverr"
	"github.com/tgvdev/tgv/internal/tracks"
)

// dispatch resolves a parsed command against the current state. Window
// mutations are synchronous; feature-relative motions and named jumps spawn
// an index query and resolve on its completion message.
func (m Model) dispatch(cmd command.Command) (tea.Model, tea.Cmd) {
	switch c := cmd.(type) {
	case command.Pan:
		if !m.window.Pan(c.Bases * m.window.BasesPerCol) {
			if c.Bases > 0 {
				m.status = "at contig end"
			} else {
				m.status = "at contig start"
			}
			return m, nil
		}
		cmd := m.requestData()
		return m, cmd

	case command.PanWindow:
		if !m.window.Pan(c.Windows * m.window.Width()) {
			m.status = "at contig edge"
			return m, nil
		}
		cmd := m.requestData()
		return m, cmd

	case command.Scroll:
		m.window.ScrollLanes(c.Lanes, m.maxTopLane())
		return m, nil

	case command.ScrollTop:
		m.window.TopLane = 0
		return m, nil

	case command.ScrollBottom:
		m.window.TopLane = m.maxTopLane()
		return m, nil

	case command.ZoomIn:
		m.window.ZoomIn(c.Factor)
		cmd := m.requestData()
		return m, cmd

	case command.ZoomOut:
		m.window.ZoomOut(c.Factor)
		cmd := m.requestData()
		return m, cmd

	case command.FeatureMotion:
		return m, m.motionCmd(c)

	case command.GotoPos:
		if c.Pos > m.window.Contig.Length {
			m.status = tgverr.New(tgverr.OutOfBounds, "%d is past the end of %s (%d)",
				c.Pos, m.window.Contig.Name, m.window.Contig.Length).Error()
			return m, nil
		}
		m.window.CenterOn(c.Pos)
		m.window.TopLane = 0
		cmd := m.requestData()
		return m, cmd

	case command.GotoContigPos:
		contig, ok := m.opts.Contigs.Resolve(c.Contig)
		if !ok {
			m.status = tgverr.New(tgverr.UnknownContig, "unknown contig %q", c.Contig).Error()
			return m, nil
		}
		if c.Pos > contig.Length {
			m.status = tgverr.New(tgverr.OutOfBounds, "%d is past the end of %s (%d)",
				c.Pos, contig.Name, contig.Length).Error()
			return m, nil
		}
		m.window.Contig = contig
		m.window.CenterOn(c.Pos)
		m.window.TopLane = 0
		cmd := m.requestData()
		return m, cmd

	case command.GotoFeature:
		return m, m.lookupCmd(c.Name)

	case command.Quit:
		return m, tea.Quit

	case command.ShowHelp:
		m.mode = ModeHelp
		return m, nil

	case command.ShowContigList:
		m.mode = ModeContigList
		if i, ok := m.opts.Contigs.Index(m.window.Contig.Name); ok {
			m.contigCursor = i
		}
		return m, nil
	}
	return m, nil
}

// maxTopLane bounds vertical scrolling to the packed lane count.
func (m Model) maxTopLane() int {
	return max(m.lanes.Count-1, 0)
}

// motionCmd queries the annotation index for the motion target.
func (m Model) motionCmd(c command.FeatureMotion) tea.Cmd {
	if m.opts.Index == nil {
		return func() tea.Msg {
			return motionMsg{motion: c, ok: false}
		}
	}
	pos := genome.Position{Contig: m.window.Contig.Name, Pos: m.window.Middle()}
	kind := tracks.KindExon
	if c.Kind == command.FeatureGene {
		kind = tracks.KindGene
	}
	edge := tracks.EdgeStart
	if c.Edge == command.EdgeEnd {
		edge = tracks.EdgeEnd
	}
	ctx, index := m.ctx, m.opts.Index
	return func() tea.Msg {
		f, ok, err := index.Next(ctx, kind, edge, pos, c.Forward, c.Count)
		return motionMsg{motion: c, feature: f, ok: ok, err: err}
	}
}

// lookupCmd resolves a feature name through the index.
func (m Model) lookupCmd(name string) tea.Cmd {
	if m.opts.Index == nil {
		return func() tea.Msg {
			return lookupMsg{name: name, err: tgverr.New(tgverr.UnknownFeature,
				"no annotation source for %q", name)}
		}
	}
	ctx, index := m.ctx, m.opts.Index
	return func() tea.Msg {
		f, err := index.Lookup(ctx, name)
		return lookupMsg{name: name, feature: f, err: err}
	}
}

// prefetchPad fetches this many window-widths beyond each edge so small pans
// hit the cache.
const prefetchPad = 1

// requestData plans fetches for the visible window (padded) on each layer
// and pins the visible interval against eviction. Rendering proceeds with
// whatever is cached; completions trigger rerenders.
func (m *Model) requestData() tea.Cmd {
	if !m.ready {
		return nil
	}
	visible := m.window.Region()
	padded := visible.Pad(prefetchPad*m.window.Width(), m.window.Contig.Length)

	var cmds []tea.Cmd

	m.seqCache.Pin(visible)
	if m.window.IsBasewise() || visible.Len() <= seqFetchLimit {
		for _, piece := range m.seqCache.Plan(padded) {
			cmds = append(cmds, m.fetchSeqCmd(piece, m.seqCache.Generation()))
		}
	}

	if m.opts.Alignments != nil && !m.alignDisabled {
		m.readCache.Pin(visible)
		for _, piece := range m.readCache.Plan(padded) {
			cmds = append(cmds, m.fetchReadsCmd(piece, m.readCache.Generation()))
		}
	}

	if m.opts.Index != nil {
		m.featCache.Pin(visible)
		for _, piece := range m.featCache.Plan(padded) {
			cmds = append(cmds, m.fetchFeaturesCmd(piece, m.featCache.Generation()))
		}
	}

	m.refreshSnapshot()
	return tea.Batch(cmds...)
}

// seqFetchLimit avoids pulling whole-contig sequence when zoomed far out;
// the render falls back to the compressed summary anyway.
const seqFetchLimit = 2_000_000

func (m Model) fetchSeqCmd(region genome.Region, gen uint64) tea.Cmd {
	ctx, provider := m.ctx, m.opts.Sequence
	return func() tea.Msg {
		bases, err := provider.Fetch(ctx, region)
		return seqFetchedMsg{
			region: region,
			gen:    gen,
			chunk:  SeqChunk{Region: region, Bases: bases},
			err:    err,
		}
	}
}

// fetchReadsCmd fetches reads with the reference threaded in, so the CIGAR
// expansion classifies matches vs mismatches. The cached sequence is reused
// when it already covers the piece; otherwise the sequence provider is asked
// directly (an all-N answer just means no mismatch calls).
func (m Model) fetchReadsCmd(region genome.Region, gen uint64) tea.Cmd {
	ctx, provider, seqProvider := m.ctx, m.opts.Alignments, m.opts.Sequence
	var slice *align.RefSlice
	if chunk, ok := m.seqCache.Covered(region); ok {
		slice = &align.RefSlice{Region: chunk.Region, Bases: chunk.Bases}
	}
	return func() tea.Msg {
		if slice == nil {
			if bases, err := seqProvider.Fetch(ctx, region); err == nil {
				slice = &align.RefSlice{Region: region, Bases: bases}
			}
		}
		reads, err := provider.Fetch(ctx, region, slice)
		return readsFetchedMsg{
			region: region,
			gen:    gen,
			set:    ReadSet{Region: region, Reads: reads},
			err:    err,
		}
	}
}

func (m Model) fetchFeaturesCmd(region genome.Region, gen uint64) tea.Cmd {
	ctx, index := m.ctx, m.opts.Index
	return func() tea.Msg {
		genes, err := index.GenesIn(ctx, region)
		return featuresFetchedMsg{
			region: region,
			gen:    gen,
			set:    FeatureSet{Region: region, Genes: genes},
			err:    err,
		}
	}
}

// refreshSnapshot assembles the visible data from the caches and repacks
// lanes when the read set changed.
func (m *Model) refreshSnapshot() {
	visible := m.window.Region()

	m.snapshot = Snapshot{}
	if chunk, ok := m.seqCache.Covered(visible); ok {
		m.snapshot.Seq = &chunk
	}
	if set, ok := m.featCache.Covered(visible); ok {
		m.snapshot.Features = &set
	}
	if set, ok := m.readCache.Covered(visible); ok {
		m.snapshot.Reads = &set
		m.lanes = layout.Pack(set.Reads)
		if m.window.TopLane > m.maxTopLane() {
			m.window.TopLane = m.maxTopLane()
		}
	} else {
		m.lanes = layout.Lanes{}
	}
}

// InvalidateData bumps every cache generation and drops the snapshot; used
// on reference switches.
func (m *Model) InvalidateData() {
	m.seqCache.InvalidateAll()
	m.readCache.InvalidateAll()
	m.featCache.InvalidateAll()
	if m.opts.Index != nil {
		m.opts.Index.Invalidate()
	}
	m.snapshot = Snapshot{}
	m.lanes = layout.Lanes{}
}
