package cache

import (
	"testing"

	"github.com/tgvdev/tgv/internal/genome"
)

// seqChunk is the sequence payload shape the viewer uses: bases plus the
// region they cover.
type seqChunk struct {
	region genome.Region
	bases  []byte
}

func seqFuncs() Funcs[seqChunk] {
	return Funcs[seqChunk]{
		Cut: func(c seqChunk, r genome.Region) seqChunk {
			clip := c.region.Intersect(r)
			if !clip.Valid() {
				return seqChunk{region: clip}
			}
			return seqChunk{
				region: clip,
				bases:  c.bases[clip.Start-c.region.Start : clip.End-c.region.Start],
			}
		},
		Join: func(parts []seqChunk) seqChunk {
			out := seqChunk{region: parts[0].region}
			for _, p := range parts {
				out.region = out.region.Union(p.region)
			}
			out.bases = make([]byte, out.region.Len())
			for i := range out.bases {
				out.bases[i] = '?'
			}
			for _, p := range parts {
				copy(out.bases[p.region.Start-out.region.Start:], p.bases)
			}
			return out
		},
		Size: func(c seqChunk) int64 { return int64(len(c.bases)) },
	}
}

func mkChunk(start int, bases string) seqChunk {
	return seqChunk{
		region: genome.Region{Contig: "chr1", Start: start, End: start + len(bases)},
		bases:  []byte(bases),
	}
}

func region(start, end int) genome.Region {
	return genome.Region{Contig: "chr1", Start: start, End: end}
}

func TestPlanReturnsMissingPiecesOnce(t *testing.T) {
	s := New("seq", 0, seqFuncs())

	missing := s.Plan(region(100, 200))
	if len(missing) != 1 || missing[0] != region(100, 200) {
		t.Fatalf("Plan = %v", missing)
	}

	// An overlapping concurrent request coalesces onto the in-flight fetch.
	if again := s.Plan(region(150, 200)); len(again) != 0 {
		t.Fatalf("overlapping Plan = %v, want none (coalesced)", again)
	}
	// A request extending past it only fetches the uncovered tail.
	tail := s.Plan(region(150, 260))
	if len(tail) != 1 || tail[0] != region(200, 260) {
		t.Fatalf("extending Plan = %v", tail)
	}
	if s.InflightCount() != 2 {
		t.Fatalf("inflight = %d, want 2", s.InflightCount())
	}
}

func TestCoveredAssemblesAcrossEntries(t *testing.T) {
	s := New("seq", 0, seqFuncs())
	gen := s.Generation()

	for _, r := range s.Plan(region(100, 110)) {
		s.Complete(r, gen, mkChunk(r.Start, "ABCDEFGHIJ"[:r.Len()]))
	}
	for _, r := range s.Plan(region(110, 115)) {
		s.Complete(r, gen, mkChunk(r.Start, "KLMNO"[:r.Len()]))
	}

	if _, ok := s.Covered(region(100, 120)); ok {
		t.Fatal("region 100-120 is not fully cached")
	}
	got, ok := s.Covered(region(105, 113))
	if !ok {
		t.Fatal("region 105-113 should be covered")
	}
	if string(got.bases) != "FGHIJKLM" {
		t.Fatalf("assembled = %q, want FGHIJKLM", got.bases)
	}
}

func TestCompleteMergesOverlappingEntries(t *testing.T) {
	s := New("seq", 0, seqFuncs())
	gen := s.Generation()

	s.Complete(region(100, 105), gen, mkChunk(100, "AAAAA"))
	s.Complete(region(103, 108), gen, mkChunk(103, "BBBBB"))

	got, ok := s.Covered(region(100, 108))
	if !ok {
		t.Fatal("merged region should be covered")
	}
	if string(got.bases) != "AAABBBBB" {
		t.Fatalf("merged = %q, want AAABBBBB (newer completion wins overlap)", got.bases)
	}
}

func TestStaleGenerationDiscarded(t *testing.T) {
	s := New("seq", 0, seqFuncs())
	gen := s.Generation()
	s.Plan(region(100, 110))

	s.InvalidateAll()

	if applied := s.Complete(region(100, 110), gen, mkChunk(100, "AAAAAAAAAA")); applied {
		t.Fatal("stale completion should be discarded")
	}
	if _, ok := s.Covered(region(100, 110)); ok {
		t.Fatal("nothing should be cached after invalidation")
	}
	// The new generation fetches afresh.
	if missing := s.Plan(region(100, 110)); len(missing) != 1 {
		t.Fatalf("Plan after invalidate = %v", missing)
	}
}

func TestFailClearsInflightForRetry(t *testing.T) {
	s := New("seq", 0, seqFuncs())
	gen := s.Generation()

	r := s.Plan(region(100, 110))[0]
	s.Fail(r, gen)
	if s.InflightCount() != 0 {
		t.Fatalf("inflight = %d after Fail, want 0", s.InflightCount())
	}
	if missing := s.Plan(region(100, 110)); len(missing) != 1 {
		t.Fatalf("Plan after Fail = %v, want refetch", missing)
	}
}

func TestEvictionSkipsPinnedInterval(t *testing.T) {
	s := New("seq", 10, seqFuncs())
	gen := s.Generation()
	s.Pin(region(100, 108))

	s.Complete(region(100, 108), gen, mkChunk(100, "AAAAAAAA"))
	s.Complete(region(500, 508), gen, mkChunk(500, "BBBBBBBB"))

	if _, ok := s.Covered(region(100, 108)); !ok {
		t.Fatal("pinned interval must never be evicted")
	}
	if _, ok := s.Covered(region(500, 508)); ok {
		t.Fatal("unpinned interval should have been evicted")
	}
	if s.Bytes() > 10 {
		t.Fatalf("Bytes = %d, want <= 10", s.Bytes())
	}
}
