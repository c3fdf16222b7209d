// Package tracks models gene annotations and answers the viewer's
// feature-relative queries: name lookup, next/previous feature motions, and
// features overlapping a window. Data comes from the UCSC MySQL server or
// from the downloaded local table; both feed the same in-memory per-contig
// track.
package tracks

import (
	"sort"
	"strings"

	"github.com/tgvdev/tgv/internal/genome"
)

// Kind of an annotated feature.
type Kind int

const (
	KindGene Kind = iota
	KindExon
	KindTranscript
)

func (k Kind) String() string {
	switch k {
	case KindGene:
		return "gene"
	case KindExon:
		return "exon"
	case KindTranscript:
		return "transcript"
	}
	return "feature"
}

// Edge selects the start or end ordinate of a feature for motions.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// Gene is one row of a UCSC-style gene table, converted to 1-based half-open
// coordinates. Exon intervals are contained in [TxStart, TxEnd).
type Gene struct {
	ID     string // transcript accession (refGene name)
	Name   string // symbol (refGene name2)
	Contig string
	Strand genome.Strand

	TxStart, TxEnd   int // transcription bounds, half-open
	CdsStart, CdsEnd int // coding bounds, half-open; CdsStart == CdsEnd for non-coding

	ExonStarts []int // half-open exon bounds, ascending
	ExonEnds   []int
}

// Region returns the transcription span.
func (g Gene) Region() genome.Region {
	return genome.Region{Contig: g.Contig, Start: g.TxStart, End: g.TxEnd}
}

// ExonCount returns the number of exons.
func (g Gene) ExonCount() int { return len(g.ExonStarts) }

// Exon returns the i-th exon interval.
func (g Gene) Exon(i int) genome.Region {
	return genome.Region{Contig: g.Contig, Start: g.ExonStarts[i], End: g.ExonEnds[i]}
}

// Feature is the uniform answer type for index queries. For exons and
// transcripts, Gene names the parent gene.
type Feature struct {
	Kind   Kind
	Name   string
	Region genome.Region
	Strand genome.Strand
	Gene   string
}

// edgeOrdinate returns the 1-based base compared and landed on by motions:
// the first base for EdgeStart, the last base for EdgeEnd.
func (f Feature) edgeOrdinate(edge Edge) int {
	if edge == EdgeEnd {
		return f.Region.End - 1
	}
	return f.Region.Start
}

// Track holds one contig's features sorted for motion queries. Genes are kept
// in a flat array; exon entries name their parent gene (Feature.Gene), so the
// feature hierarchy carries no cycles.
type Track struct {
	Contig string
	Genes  []Gene

	// sorted views, built once
	geneByStart []Feature
	geneByEnd   []Feature
	exonByStart []Feature
	exonByEnd   []Feature
}

// NewTrack builds a track from genes of one contig.
func NewTrack(contig string, genes []Gene) *Track {
	sort.SliceStable(genes, func(i, j int) bool {
		if genes[i].TxStart != genes[j].TxStart {
			return genes[i].TxStart < genes[j].TxStart
		}
		return genes[i].Name < genes[j].Name
	})
	t := &Track{Contig: contig, Genes: genes}

	geneFeatures := make([]Feature, 0, len(genes))
	var exonFeatures []Feature
	for gi := range genes {
		g := &genes[gi]
		geneFeatures = append(geneFeatures, Feature{
			Kind:   KindGene,
			Name:   g.Name,
			Region: g.Region(),
			Strand: g.Strand,
		})
		for e := 0; e < g.ExonCount(); e++ {
			exonFeatures = append(exonFeatures, Feature{
				Kind:   KindExon,
				Name:   g.Name,
				Region: g.Exon(e),
				Strand: g.Strand,
				Gene:   g.Name,
			})
		}
	}

	t.geneByStart = sortedByEdge(geneFeatures, EdgeStart)
	t.geneByEnd = sortedByEdge(geneFeatures, EdgeEnd)
	t.exonByStart = sortedByEdge(exonFeatures, EdgeStart)
	t.exonByEnd = sortedByEdge(exonFeatures, EdgeEnd)
	return t
}

// sortedByEdge orders features by the edge ordinate; ties put the longer
// feature first so motions land deterministically on the dominant one.
func sortedByEdge(fs []Feature, edge Edge) []Feature {
	out := make([]Feature, len(fs))
	copy(out, fs)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].edgeOrdinate(edge), out[j].edgeOrdinate(edge)
		if oi != oj {
			return oi < oj
		}
		li, lj := out[i].Region.Len(), out[j].Region.Len()
		if li != lj {
			return li > lj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (t *Track) edgeSlice(kind Kind, edge Edge) []Feature {
	switch kind {
	case KindExon:
		if edge == EdgeEnd {
			return t.exonByEnd
		}
		return t.exonByStart
	default:
		if edge == EdgeEnd {
			return t.geneByEnd
		}
		return t.geneByStart
	}
}

// Next returns the count-th feature of kind whose edge ordinate is strictly
// past pos in the given direction. Motions clamp at the first/last feature of
// the contig; ok is false when no feature of the kind lies strictly past pos
// in that direction.
func (t *Track) Next(kind Kind, edge Edge, pos int, forward bool, count int) (Feature, bool) {
	fs := t.edgeSlice(kind, edge)
	if len(fs) == 0 {
		return Feature{}, false
	}
	if count < 1 {
		count = 1
	}

	var idx int
	if forward {
		first := sort.Search(len(fs), func(i int) bool { return fs[i].edgeOrdinate(edge) > pos })
		if first == len(fs) {
			return Feature{}, false
		}
		idx = min(first+count-1, len(fs)-1)
	} else {
		after := sort.Search(len(fs), func(i int) bool { return fs[i].edgeOrdinate(edge) >= pos })
		if after == 0 {
			return Feature{}, false
		}
		idx = max(after-count, 0)
	}

	// Land on the longest feature of the final tie group.
	ord := fs[idx].edgeOrdinate(edge)
	for idx > 0 && fs[idx-1].edgeOrdinate(edge) == ord {
		idx--
	}
	return fs[idx], true
}

// FeaturesIn returns genes and exons overlapping the region in start order.
func (t *Track) FeaturesIn(region genome.Region) []Feature {
	var out []Feature
	for _, f := range t.geneByStart {
		if f.Region.Overlaps(region) {
			out = append(out, f)
		}
	}
	for _, f := range t.exonByStart {
		if f.Region.Overlaps(region) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Region.Start < out[j].Region.Start })
	return out
}

// GenesIn returns genes overlapping the region in start order.
func (t *Track) GenesIn(region genome.Region) []Gene {
	var out []Gene
	for _, g := range t.Genes {
		if g.Region().Overlaps(region) {
			out = append(out, g)
		}
	}
	return out
}

// Lookup finds a gene by symbol or transcript accession, case-insensitive.
// Several transcripts may share a symbol; the longest wins.
func (t *Track) Lookup(name string) (Feature, bool) {
	key := strings.ToLower(name)
	var best *Gene
	for gi := range t.Genes {
		g := &t.Genes[gi]
		if strings.ToLower(g.Name) != key && strings.ToLower(g.ID) != key {
			continue
		}
		if best == nil || g.TxEnd-g.TxStart > best.TxEnd-best.TxStart {
			best = g
		}
	}
	if best == nil {
		return Feature{}, false
	}
	return Feature{Kind: KindGene, Name: best.Name, Region: best.Region(), Strand: best.Strand}, true
}
