// Package layout packs reads into non-overlapping lanes and computes the
// coverage histogram with per-column base tallies.
package layout

import (
	"sort"

	"github.com/tgvdev/tgv/internal/align"
	"github.com/tgvdev/tgv/internal/genome"
)

// LanePad is the minimum horizontal gap, in bases, between reads sharing a
// lane.
const LanePad = 1

// Lanes holds the pileup arrangement for one read set.
type Lanes struct {
	Reads  []align.Read // sorted by (start, name)
	LaneOf []int        // parallel to Reads
	Count  int
}

// Pack assigns each read the lowest-indexed lane whose previous occupant
// ends (plus the pad) before the read starts. Reads are placed in start
// order with the query name breaking ties, so the arrangement is
// deterministic for a given read set.
func Pack(reads []align.Read) Lanes {
	sorted := make([]align.Read, len(reads))
	copy(sorted, reads)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].StackStart(), sorted[j].StackStart()
		if si != sj {
			return si < sj
		}
		return sorted[i].Name < sorted[j].Name
	})

	out := Lanes{Reads: sorted, LaneOf: make([]int, len(sorted))}
	var laneEnds []int // exclusive end (incl. trailing clips) of each lane's last read
	for i, r := range sorted {
		placed := false
		for lane, end := range laneEnds {
			if end+LanePad <= r.StackStart() {
				laneEnds[lane] = r.StackEnd()
				out.LaneOf[i] = lane
				placed = true
				break
			}
		}
		if !placed {
			laneEnds = append(laneEnds, r.StackEnd())
			out.LaneOf[i] = len(laneEnds) - 1
		}
	}
	out.Count = len(laneEnds)
	return out
}

// InLane returns the indexes (into Reads) assigned to a lane, in start order.
func (l Lanes) InLane(lane int) []int {
	var out []int
	for i, ln := range l.LaneOf {
		if ln == lane {
			out = append(out, i)
		}
	}
	return out
}

// BaseTally counts observed bases at one reference position.
type BaseTally struct {
	A, C, G, T, N int
	Del           int
}

// Total returns the read depth at the position.
func (t BaseTally) Total() int { return t.A + t.C + t.G + t.T + t.N + t.Del }

func (t *BaseTally) add(base byte) {
	switch base {
	case 'A':
		t.A++
	case 'C':
		t.C++
	case 'G':
		t.G++
	case 'T':
		t.T++
	default:
		t.N++
	}
}

// Count returns the tally for one base letter.
func (t BaseTally) Count(base byte) int {
	switch base {
	case 'A':
		return t.A
	case 'C':
		return t.C
	case 'G':
		return t.G
	case 'T':
		return t.T
	}
	return t.N
}

// Coverage is the per-position depth over a region.
type Coverage struct {
	Region  genome.Region
	Tallies []BaseTally // parallel to region positions
}

// At returns the tally at a 1-based position (zero outside the region).
func (c Coverage) At(pos int) BaseTally {
	if !c.Region.ContainsPos(pos) {
		return BaseTally{}
	}
	return c.Tallies[pos-c.Region.Start]
}

// MaxDepth returns the highest depth in the region.
func (c Coverage) MaxDepth() int {
	m := 0
	for _, t := range c.Tallies {
		if d := t.Total(); d > m {
			m = d
		}
	}
	return m
}

// Cover accumulates aligned bases and deletions over the region. Soft clips
// and reference skips do not count toward depth.
func Cover(region genome.Region, reads []align.Read) Coverage {
	cov := Coverage{Region: region, Tallies: make([]BaseTally, region.Len())}
	for _, r := range reads {
		for _, op := range r.Ops {
			if !region.ContainsPos(op.Pos) {
				continue
			}
			t := &cov.Tallies[op.Pos-region.Start]
			switch op.Op {
			case align.OpMatch, align.OpMismatch:
				t.add(op.Base)
			case align.OpDeletion:
				t.Del++
			}
		}
	}
	return cov
}

// MismatchThreshold is the minimum base count for a column to be flagged.
const MismatchThreshold = 1

// MismatchColumns returns positions where a non-reference base reaches the
// threshold. ref covers the same region as cov; an 'N' reference base never
// flags (the --no-reference degradation).
func MismatchColumns(cov Coverage, ref []byte, threshold int) []int {
	var out []int
	for i, t := range cov.Tallies {
		if i >= len(ref) {
			break
		}
		rb := ref[i]
		if rb == 'N' || rb == 'n' {
			continue
		}
		for _, base := range []byte{'A', 'C', 'G', 'T'} {
			if base == rb {
				continue
			}
			if t.Count(base) >= threshold {
				out = append(out, cov.Region.Start+i)
				break
			}
		}
	}
	return out
}

// NiceMax rounds up to the next 1/2/5 x 10^k value for the coverage y-axis.
func NiceMax(n int) int {
	if n <= 1 {
		return 1
	}
	mag := 1
	for {
		for _, m := range []int{1, 2, 5} {
			if v := m * mag; v >= n {
				return v
			}
		}
		mag *= 10
	}
}
