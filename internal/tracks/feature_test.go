package tracks

import (
	"testing"

	"github.com/tgvdev/tgv/internal/genome"
)

func gene(name string, start, end int, exons ...[2]int) Gene {
	g := Gene{
		ID:       name + ".1",
		Name:     name,
		Contig:   "chr1",
		Strand:   genome.StrandForward,
		TxStart:  start,
		TxEnd:    end,
		CdsStart: start,
		CdsEnd:   end,
	}
	for _, e := range exons {
		g.ExonStarts = append(g.ExonStarts, e[0])
		g.ExonEnds = append(g.ExonEnds, e[1])
	}
	return g
}

func testTrack() *Track {
	return NewTrack("chr1", []Gene{
		gene("ALPHA", 500, 900, [2]int{500, 600}, [2]int{800, 900}),
		gene("BETA", 1500, 2100, [2]int{1500, 1600}, [2]int{2000, 2100}),
		gene("GAMMA", 2500, 2600, [2]int{2500, 2600}),
	})
}

func TestNextGeneMotions(t *testing.T) {
	tr := testTrack()

	f, ok := tr.Next(KindGene, EdgeStart, 1, true, 1)
	if !ok || f.Name != "ALPHA" {
		t.Fatalf("W from 1 = %+v (%v), want ALPHA", f, ok)
	}
	f, ok = tr.Next(KindGene, EdgeStart, 500, true, 1)
	if !ok || f.Name != "BETA" {
		t.Fatalf("W from 500 = %+v, want BETA (strictly past)", f)
	}
	f, ok = tr.Next(KindGene, EdgeStart, 1, true, 3)
	if !ok || f.Name != "GAMMA" {
		t.Fatalf("3W from 1 = %+v, want GAMMA", f)
	}
	// Clamp at the last feature, no wrap-around.
	f, ok = tr.Next(KindGene, EdgeStart, 1, true, 99)
	if !ok || f.Name != "GAMMA" {
		t.Fatalf("99W = %+v, want clamp to GAMMA", f)
	}
	if _, ok := tr.Next(KindGene, EdgeStart, 3000, true, 1); ok {
		t.Fatal("W past the last gene should find nothing")
	}

	f, ok = tr.Next(KindGene, EdgeStart, 2500, false, 1)
	if !ok || f.Name != "BETA" {
		t.Fatalf("B from 2500 = %+v, want BETA", f)
	}
	f, ok = tr.Next(KindGene, EdgeEnd, 2098, true, 1)
	if !ok || f.Name != "BETA" {
		t.Fatalf("E from 2098 = %+v, want BETA", f)
	}
}

func TestNextGeneEndOrdinates(t *testing.T) {
	tr := testTrack()
	// BETA spans [1500,2100): its end base is 2099.
	f, ok := tr.Next(KindGene, EdgeEnd, 900, true, 1)
	if !ok || f.Name != "BETA" || f.Region.End-1 != 2099 {
		t.Fatalf("E from 900 = %+v, want BETA ending at 2099", f)
	}
	// ALPHA's end base is 899; from 899 backwards there is nothing earlier.
	if _, ok := tr.Next(KindGene, EdgeEnd, 899, false, 1); ok {
		t.Fatal("gE from 899 should find nothing strictly before")
	}
}

func TestNextExonMotions(t *testing.T) {
	tr := testTrack()
	f, ok := tr.Next(KindExon, EdgeStart, 550, true, 1)
	if !ok || f.Region.Start != 800 {
		t.Fatalf("w from 550 = %+v, want exon at 800", f)
	}
	f, ok = tr.Next(KindExon, EdgeEnd, 1700, false, 1)
	if !ok || f.Region.End-1 != 1599 {
		t.Fatalf("ge from 1700 = %+v, want exon ending 1599", f)
	}
	if f.Gene != "BETA" {
		t.Fatalf("exon parent = %q, want BETA", f.Gene)
	}
}

func TestSharedStartPrefersLongerGene(t *testing.T) {
	tr := NewTrack("chr1", []Gene{
		gene("SHORT", 1000, 1200),
		gene("LONG", 1000, 5000),
	})
	f, ok := tr.Next(KindGene, EdgeStart, 1, true, 1)
	if !ok || f.Name != "LONG" {
		t.Fatalf("W onto shared start = %+v, want LONG", f)
	}
}

func TestLookupPrefersLongestTranscript(t *testing.T) {
	tr := NewTrack("chr1", []Gene{
		gene("TP53", 7_668_421, 7_676_000),
		gene("TP53", 7_668_421, 7_687_491),
	})
	f, ok := tr.Lookup("tp53")
	if !ok {
		t.Fatal("Lookup(tp53) not found")
	}
	if f.Region.End != 7_687_491 {
		t.Fatalf("Lookup span = %v, want the longer transcript", f.Region)
	}
	if _, ok := tr.Lookup("notagene"); ok {
		t.Fatal("Lookup(notagene) should fail")
	}
}

func TestNextAfterLookupIsStrictlyPast(t *testing.T) {
	tr := testTrack()
	for _, name := range []string{"ALPHA", "BETA", "GAMMA"} {
		f, ok := tr.Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%s) failed", name)
		}
		next, ok := tr.Next(KindGene, EdgeStart, f.Region.Start, true, 1)
		if ok && next.Region.Start <= f.Region.Start {
			t.Fatalf("next gene after %s starts at %d, want > %d", name, next.Region.Start, f.Region.Start)
		}
	}
}

func TestFeaturesInSortedByStart(t *testing.T) {
	tr := testTrack()
	fs := tr.FeaturesIn(genome.Region{Contig: "chr1", Start: 1, End: 3000})
	if len(fs) == 0 {
		t.Fatal("no features returned")
	}
	for i := 1; i < len(fs); i++ {
		if fs[i].Region.Start < fs[i-1].Region.Start {
			t.Fatalf("features out of order at %d: %v after %v", i, fs[i].Region, fs[i-1].Region)
		}
	}
}
