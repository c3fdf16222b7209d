package layout

import (
	"testing"

	"github.com/tgvdev/tgv/internal/align"
	"github.com/tgvdev/tgv/internal/genome"
)

func read(name string, start, end int) align.Read {
	r := align.Read{
		Name:   name,
		Region: genome.Region{Contig: "chr1", Start: start, End: end},
	}
	for pos := start; pos < end; pos++ {
		r.Ops = append(r.Ops, align.BaseOp{Pos: pos, Op: align.OpMatch, Base: 'A'})
	}
	return r
}

func TestPackNoOverlapWithinLane(t *testing.T) {
	reads := []align.Read{
		read("r1", 100, 150),
		read("r2", 120, 170),
		read("r3", 152, 200), // fits after r1 with the pad
		read("r4", 150, 160), // pad of 1 keeps it off r1's lane
	}
	l := Pack(reads)

	if l.Count != 3 {
		t.Fatalf("lane count = %d, want 3", l.Count)
	}
	byName := map[string]int{}
	for i, r := range l.Reads {
		byName[r.Name] = l.LaneOf[i]
	}
	if byName["r1"] != byName["r3"] {
		t.Fatalf("r3 should reuse r1's lane: %v", byName)
	}
	if byName["r4"] == byName["r1"] {
		t.Fatalf("r4 must not share r1's lane (pad): %v", byName)
	}

	// Property: no two reads in one lane overlap, with the pad.
	for lane := 0; lane < l.Count; lane++ {
		idxs := l.InLane(lane)
		for i := 1; i < len(idxs); i++ {
			prev, cur := l.Reads[idxs[i-1]], l.Reads[idxs[i]]
			if prev.StackEnd()+LanePad > cur.StackStart() {
				t.Fatalf("lane %d: %s [%d,%d) too close to %s [%d,%d)", lane,
					prev.Name, prev.StackStart(), prev.StackEnd(),
					cur.Name, cur.StackStart(), cur.StackEnd())
			}
		}
	}
}

func TestPackDeterministicTieBreak(t *testing.T) {
	a := []align.Read{read("b", 100, 150), read("a", 100, 150)}
	b := []align.Read{read("a", 100, 150), read("b", 100, 150)}
	la, lb := Pack(a), Pack(b)
	for i := range la.Reads {
		if la.Reads[i].Name != lb.Reads[i].Name || la.LaneOf[i] != lb.LaneOf[i] {
			t.Fatalf("packing depends on input order: %v vs %v", la, lb)
		}
	}
	if la.Reads[0].Name != "a" {
		t.Fatalf("tie on start should order by name, got %q first", la.Reads[0].Name)
	}
}

func TestPackIncludesSoftClipsInStacking(t *testing.T) {
	clipped := read("c", 150, 200)
	clipped.LeadingClip = 10 // hangs into 140..149
	plain := read("p", 100, 141)
	l := Pack([]align.Read{plain, clipped})
	if l.Count != 2 {
		t.Fatalf("lane count = %d, want 2 (clip collides)", l.Count)
	}
}

func TestCoverTallies(t *testing.T) {
	region := genome.Region{Contig: "chr1", Start: 100, End: 110}
	r1 := read("r1", 100, 105)
	r2 := read("r2", 103, 108)
	// Give r2 a mismatching base and a deletion.
	r2.Ops[0] = align.BaseOp{Pos: 103, Op: align.OpMismatch, Base: 'G'}
	r2.Ops[1] = align.BaseOp{Pos: 104, Op: align.OpDeletion}

	cov := Cover(region, []align.Read{r1, r2})

	if got := cov.At(100).Total(); got != 1 {
		t.Fatalf("depth(100) = %d, want 1", got)
	}
	if got := cov.At(103); got.A != 1 || got.G != 1 {
		t.Fatalf("tally(103) = %+v, want A=1 G=1", got)
	}
	if got := cov.At(104); got.Del != 1 || got.Total() != 2 {
		t.Fatalf("tally(104) = %+v, want one A one del", got)
	}
	if got := cov.At(109).Total(); got != 0 {
		t.Fatalf("depth(109) = %d, want 0", got)
	}
	if cov.MaxDepth() != 2 {
		t.Fatalf("MaxDepth = %d, want 2", cov.MaxDepth())
	}
}

func TestMismatchColumns(t *testing.T) {
	region := genome.Region{Contig: "chr1", Start: 100, End: 104}
	ref := []byte("ACGN")

	r := read("r1", 100, 104)
	r.Ops[1] = align.BaseOp{Pos: 101, Op: align.OpMismatch, Base: 'T'}
	r.Ops[3] = align.BaseOp{Pos: 103, Op: align.OpMismatch, Base: 'T'}

	cov := Cover(region, []align.Read{r})
	got := MismatchColumns(cov, ref, 1)
	// 101 mismatches (T vs C); 103 has an N reference and never flags.
	if len(got) != 1 || got[0] != 101 {
		t.Fatalf("MismatchColumns = %v, want [101]", got)
	}
}

func TestNiceMax(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 5, 5: 5, 6: 10, 10: 10, 11: 20, 47: 50, 51: 100, 200: 200, 201: 500, 999: 1000}
	for in, want := range cases {
		if got := NiceMax(in); got != want {
			t.Fatalf("NiceMax(%d) = %d, want %d", in, got, want)
		}
	}
}
