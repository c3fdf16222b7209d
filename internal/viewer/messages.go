package viewer

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgvdev/tgv/internal/command"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tracks"
)

// Fetch completions. Each carries the generation it was issued under; the
// event loop discards completions from older generations.

type seqFetchedMsg struct {
	region genome.Region
	gen    uint64
	chunk  SeqChunk
	err    error
}

type readsFetchedMsg struct {
	region genome.Region
	gen    uint64
	set    ReadSet
	err    error
}

type featuresFetchedMsg struct {
	region genome.Region
	gen    uint64
	set    FeatureSet
	err    error
}

// motionMsg resolves a feature-relative motion once the annotation index has
// answered.
type motionMsg struct {
	motion  command.FeatureMotion
	feature tracks.Feature
	ok      bool
	err     error
}

// lookupMsg resolves a named jump.
type lookupMsg struct {
	name    string
	feature tracks.Feature
	err     error
}

// retryMsg fires after the backoff delay to reissue failed fetches.
type retryMsg struct{}

func retryAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return retryMsg{} })
}
