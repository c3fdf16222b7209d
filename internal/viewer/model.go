// Package viewer is the interactive engine: it owns the view window and
// mode, parses modal key input, issues data fetches through the region
// caches, and projects the current snapshot onto the terminal.
//
// All state lives on the Bubble Tea event loop. Fetches run as commands in
// the background and deliver typed completion messages; Update applies them
// between frames, so the caches need no locking.
package viewer

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tgvdev/tgv/internal/align"
	"github.com/tgvdev/tgv/internal/bed"
	"github.com/tgvdev/tgv/internal/cache"
	"github.com/tgvdev/tgv/internal/command"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/layout"
	"github.com/tgvdev/tgv/internal/logging"
	"github.com/tgvdev/tgv/internal/seq"
	"github.com/tgvdev/tgv/internal/tgverr"
	"github.com/tgvdev/tgv/internal/tracks"
	"github.com/tgvdev/tgv/internal/vcf"
)

// Mode is the input mode of the viewer.
type Mode int

const (
	ModeNormal Mode = iota
	ModeCommand
	ModeHelp
	ModeError
	ModeContigList
)

const (
	defaultCacheBytes = 64 << 20

	initialRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// Options wires the viewer to its data sources.
type Options struct {
	Context context.Context

	Contigs    *genome.ContigSet
	Sequence   seq.Provider   // never nil; NoneProvider when disabled
	Alignments align.Provider // nil for reference-only browsing
	Index      *tracks.Index  // nil without an annotation source

	BedFeatures []bed.Feature // render-only overlay
	Variants    []vcf.Variant // render-only overlay

	InitialWindow genome.ViewWindow
	ThemeName     string
	CacheBytes    int64
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx  context.Context
	opts Options

	mode    Mode
	window  genome.ViewWindow
	reg     command.NormalRegister
	cmdline textinput.Model

	status string // informational, shown in the status line
	errMsg string // error banner text in ModeError

	seqCache  *cache.Store[SeqChunk]
	readCache *cache.Store[ReadSet]
	featCache *cache.Store[FeatureSet]

	snapshot Snapshot
	lanes    layout.Lanes

	alignDisabled bool // set on CacheCorruption/Internal until restart

	width, height int
	ready         bool
	theme         Theme
	styles        Styles

	contigCursor int

	retryDelay time.Duration
	retrying   bool
}

// New builds the viewer model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cacheBytes := opts.CacheBytes
	if cacheBytes <= 0 {
		cacheBytes = defaultCacheBytes
	}

	cmdline := textinput.New()
	cmdline.Prompt = ":"
	cmdline.CharLimit = 256

	theme := GetTheme(opts.ThemeName)

	return Model{
		ctx:        ctx,
		opts:       opts,
		mode:       ModeNormal,
		window:     opts.InitialWindow,
		cmdline:    cmdline,
		seqCache:   cache.New("sequence", cacheBytes, seqFuncs()),
		readCache:  cache.New("alignments", cacheBytes, readFuncs()),
		featCache:  cache.New("features", cacheBytes, featureFuncs()),
		theme:      theme,
		styles:     theme.Styles(),
		retryDelay: initialRetryDelay,
	}
}

// Window exposes the current view window (for tests and the mouse handler).
func (m Model) Window() genome.ViewWindow { return m.window }

// Mode exposes the current mode.
func (m Model) Mode() Mode { return m.mode }

// Status exposes the status line message.
func (m Model) Status() string { return m.status }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.EnableMouseCellMotion)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.window.Resize(max(msg.Width, 1))
		m.ready = true
		cmd := m.requestData()
		return m, cmd

	case seqFetchedMsg:
		return m.applySeq(msg)

	case readsFetchedMsg:
		return m.applyReads(msg)

	case featuresFetchedMsg:
		return m.applyFeatures(msg)

	case motionMsg:
		return m.applyMotion(msg)

	case lookupMsg:
		return m.applyLookup(msg)

	case retryMsg:
		m.retrying = false
		cmd := m.requestData()
		return m, cmd
	}
	return m, nil
}

// handleKey routes keys by mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// Esc returns to Normal from anywhere, clearing buffers and errors.
	if key == "esc" {
		m.mode = ModeNormal
		m.reg.Clear()
		m.cmdline.Reset()
		m.errMsg = ""
		m.status = ""
		return m, nil
	}

	switch m.mode {
	case ModeCommand:
		return m.handleCommandKey(msg)
	case ModeHelp:
		// Any key leaves help.
		m.mode = ModeNormal
		return m, nil
	case ModeError:
		// Any key acknowledges the banner.
		m.mode = ModeNormal
		m.errMsg = ""
		return m, nil
	case ModeContigList:
		return m.handleContigListKey(key)
	}
	return m.handleNormalKey(key)
}

func (m Model) handleNormalKey(key string) (tea.Model, tea.Cmd) {
	if key == ":" {
		m.mode = ModeCommand
		m.reg.Clear()
		m.cmdline.Reset()
		m.cmdline.Focus()
		return m, textinput.Blink
	}

	cmd, err := m.reg.Feed(key)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	if cmd == nil {
		return m, nil // prefix still accumulating
	}
	m.status = ""
	return m.dispatch(cmd)
}

func (m Model) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		line := m.cmdline.Value()
		m.mode = ModeNormal
		m.cmdline.Reset()

		parsed, err := command.ParseLine(line)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m.dispatch(parsed)
	}

	var cmd tea.Cmd
	m.cmdline, cmd = m.cmdline.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m
	}
	base := m.window.BaseAtColumn(msg.X)
	if base > m.window.Contig.Length {
		return m
	}
	m.status = genome.Position{Contig: m.window.Contig.Name, Pos: base}.String()
	if read := m.readAtCell(msg.X, msg.Y); read != nil {
		m.status = readSummary(*read)
	}
	return m
}

// applySeq folds a sequence completion into the cache and snapshot.
func (m Model) applySeq(msg seqFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.seqCache.Fail(msg.region, msg.gen)
		return m.fetchFailed("sequence", msg.err)
	}
	if m.seqCache.Complete(msg.region, msg.gen, msg.chunk) {
		m.retryDelay = initialRetryDelay
		m.refreshSnapshot()
	}
	return m, nil
}

func (m Model) applyReads(msg readsFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.readCache.Fail(msg.region, msg.gen)
		if tgverr.KindOf(msg.err) == tgverr.CacheCorruption || tgverr.KindOf(msg.err) == tgverr.Internal {
			m.alignDisabled = true
			m.mode = ModeError
			m.errMsg = "alignment track disabled: " + msg.err.Error()
			return m, nil
		}
		return m.fetchFailed("alignments", msg.err)
	}
	if m.readCache.Complete(msg.region, msg.gen, msg.set) {
		m.retryDelay = initialRetryDelay
		m.refreshSnapshot()
	}
	return m, nil
}

func (m Model) applyFeatures(msg featuresFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.featCache.Fail(msg.region, msg.gen)
		return m.fetchFailed("features", msg.err)
	}
	if m.featCache.Complete(msg.region, msg.gen, msg.set) {
		m.retryDelay = initialRetryDelay
		m.refreshSnapshot()
	}
	return m, nil
}

// fetchFailed maps a provider error to the error banner plus a capped
// exponential retry. Cached data keeps rendering underneath.
func (m Model) fetchFailed(kind string, err error) (tea.Model, tea.Cmd) {
	logging.Warn("fetch failed", zap.String("kind", kind), zap.Error(err))
	if tgverr.Recoverable(err) {
		m.status = err.Error()
		return m, nil
	}
	m.mode = ModeError
	m.errMsg = err.Error() + " (retrying; Esc to dismiss)"
	if m.retrying {
		return m, nil
	}
	m.retrying = true
	delay := m.retryDelay
	m.retryDelay = min(m.retryDelay*2, maxRetryDelay)
	return m, retryAfter(delay)
}

func (m Model) applyMotion(msg motionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.fetchFailed("annotation", msg.err)
	}
	if !msg.ok {
		// Not an error: the motion simply has nowhere to go.
		m.status = "no " + msg.motion.Kind.String() + " in that direction"
		return m, nil
	}
	edge := msg.feature.Region.Start
	if msg.motion.Edge == command.EdgeEnd {
		edge = msg.feature.Region.End - 1
	}
	m.window.CenterOn(edge)
	m.window.TopLane = 0
	m.status = motionStatus(msg.feature)
	cmd := m.requestData()
	return m, cmd
}

func (m Model) applyLookup(msg lookupMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if tgverr.Recoverable(msg.err) {
			m.status = msg.err.Error()
			return m, nil
		}
		return m.fetchFailed("annotation", msg.err)
	}

	feature := msg.feature
	contig, ok := m.opts.Contigs.Resolve(feature.Region.Contig)
	if !ok {
		m.status = tgverr.New(tgverr.UnknownContig, "feature %s is on unknown contig %s",
			feature.Name, feature.Region.Contig).Error()
		return m, nil
	}

	m.window.Contig = contig
	m.window.BasesPerCol = featureZoom(feature.Region.Len(), m.window.Columns)
	m.window.CenterOn(feature.Region.Start + feature.Region.Len()/2)
	m.window.TopLane = 0
	m.status = motionStatus(feature)
	cmd := m.requestData()
	return m, cmd
}

func motionStatus(f tracks.Feature) string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString("  ")
	b.WriteString(f.Region.String())
	b.WriteString("  (")
	b.WriteString(f.Strand.String())
	b.WriteString(")")
	return b.String()
}

// featureZoom picks bases-per-column so the feature fills roughly 80% of the
// columns, rounded up to a power of two but never dropping below half-width
// occupancy.
func featureZoom(featLen, columns int) int {
	if columns <= 0 {
		return 1
	}
	target := (featLen*10 + columns*8 - 1) / (columns * 8) // ceil(featLen / (0.8*columns))
	bpc := 1
	for bpc < target {
		bpc *= 2
	}
	// Rounding up can overshoot; keep the feature at >= 50% of the columns.
	for bpc > 1 && featLen*2 < bpc*columns {
		bpc /= 2
	}
	return bpc
}
