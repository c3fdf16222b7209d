package viewer

import (
	"github.com/biogo/hts/sam"

	"github.com/tgvdev/tgv/internal/align"
	"github.com/tgvdev/tgv/internal/cache"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tracks"
)

// SeqChunk is a cached slice of reference sequence.
type SeqChunk struct {
	Region genome.Region
	Bases  []byte
}

// BaseAt returns the uppercase base at a 1-based position, or 'N' when the
// chunk does not cover it.
func (c SeqChunk) BaseAt(pos int) byte {
	if !c.Region.ContainsPos(pos) {
		return 'N'
	}
	b := c.Bases[pos-c.Region.Start]
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	return b
}

func seqFuncs() cache.Funcs[SeqChunk] {
	return cache.Funcs[SeqChunk]{
		Cut: func(c SeqChunk, r genome.Region) SeqChunk {
			clip := c.Region.Intersect(r)
			if !clip.Valid() {
				return SeqChunk{Region: clip}
			}
			return SeqChunk{
				Region: clip,
				Bases:  c.Bases[clip.Start-c.Region.Start : clip.End-c.Region.Start],
			}
		},
		Join: func(parts []SeqChunk) SeqChunk {
			out := SeqChunk{Region: parts[0].Region}
			for _, p := range parts {
				out.Region = out.Region.Union(p.Region)
			}
			out.Bases = make([]byte, out.Region.Len())
			for i := range out.Bases {
				out.Bases[i] = 'N'
			}
			for _, p := range parts {
				copy(out.Bases[p.Region.Start-out.Region.Start:], p.Bases)
			}
			return out
		},
		Size: func(c SeqChunk) int64 { return int64(len(c.Bases)) },
	}
}

// ReadSet is a cached batch of reads; Region is the fetched interval, and
// Reads may extend past it (callers filter by overlap).
type ReadSet struct {
	Region genome.Region
	Reads  []align.Read
}

func readFuncs() cache.Funcs[ReadSet] {
	return cache.Funcs[ReadSet]{
		Cut: func(s ReadSet, r genome.Region) ReadSet {
			clip := s.Region.Intersect(r)
			out := ReadSet{Region: clip}
			for _, read := range s.Reads {
				if read.Region.Overlaps(clip) {
					out.Reads = append(out.Reads, read)
				}
			}
			return out
		},
		Join: func(parts []ReadSet) ReadSet {
			out := ReadSet{Region: parts[0].Region}
			seen := make(map[readKey]bool)
			for _, p := range parts {
				out.Region = out.Region.Union(p.Region)
				for _, read := range p.Reads {
					k := readKey{read.Name, read.Region.Start, read.Flags}
					if seen[k] {
						continue
					}
					seen[k] = true
					out.Reads = append(out.Reads, read)
				}
			}
			return out
		},
		Size: func(s ReadSet) int64 {
			var n int64
			for _, r := range s.Reads {
				n += int64(len(r.Ops))*4 + int64(len(r.Name)) + 64
			}
			return n
		},
	}
}

// readKey identifies a read across overlapping fetches; a mate pair shares
// the name, so flags join the key.
type readKey struct {
	name  string
	start int
	flags sam.Flags
}

// FeatureSet is a cached batch of annotation features plus the gene models
// needed for exon/intron rendering.
type FeatureSet struct {
	Region genome.Region
	Genes  []tracks.Gene
}

func featureFuncs() cache.Funcs[FeatureSet] {
	return cache.Funcs[FeatureSet]{
		Cut: func(s FeatureSet, r genome.Region) FeatureSet {
			clip := s.Region.Intersect(r)
			out := FeatureSet{Region: clip}
			for _, g := range s.Genes {
				if g.Region().Overlaps(clip) {
					out.Genes = append(out.Genes, g)
				}
			}
			return out
		},
		Join: func(parts []FeatureSet) FeatureSet {
			out := FeatureSet{Region: parts[0].Region}
			seen := make(map[string]bool)
			for _, p := range parts {
				out.Region = out.Region.Union(p.Region)
				for _, g := range p.Genes {
					if seen[g.ID] {
						continue
					}
					seen[g.ID] = true
					out.Genes = append(out.Genes, g)
				}
			}
			return out
		},
		Size: func(s FeatureSet) int64 {
			var n int64
			for _, g := range s.Genes {
				n += int64(len(g.ExonStarts))*16 + int64(len(g.Name)+len(g.ID)) + 96
			}
			return n
		},
	}
}

// Snapshot is the data the render model draws from: whatever the caches hold
// for the visible window. Missing layers render as placeholders.
type Snapshot struct {
	Seq      *SeqChunk
	Reads    *ReadSet
	Features *FeatureSet
}
