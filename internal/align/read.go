// Package align fetches reads overlapping a window from a BAM file and
// expands their CIGAR strings into per-reference-base operations the layout
// and render layers consume directly.
package align

import (
	"github.com/biogo/hts/sam"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// Op is the per-reference-base classification of an aligned read base.
type Op byte

const (
	OpMatch Op = iota
	OpMismatch
	OpDeletion
	OpRefSkip
	OpSoftClip // clipped base rendered adjacent to the aligned span
)

// BaseOp places one operation at a 1-based reference position. Base holds
// the query base for match/mismatch/soft-clip ops.
type BaseOp struct {
	Pos  int
	Op   Op
	Base byte
}

// Insertion carries bases with no reference span, attached to the reference
// position they follow.
type Insertion struct {
	After int
	Bases []byte
}

// Read is a CIGAR-expanded alignment record.
type Read struct {
	Name   string
	Region genome.Region // aligned span, half-open, excluding soft clips
	Strand genome.Strand
	MapQ   byte
	Flags  sam.Flags

	Ops        []BaseOp
	Insertions []Insertion

	LeadingClip  int
	TrailingClip int
}

// StackStart returns the 1-based leftmost rendered base including leading
// soft clips, floored at 1.
func (r Read) StackStart() int {
	return max(r.Region.Start-r.LeadingClip, 1)
}

// StackEnd returns the exclusive right bound including trailing soft clips.
func (r Read) StackEnd() int {
	return r.Region.End + r.TrailingClip
}

// RefSlice is a piece of reference sequence used to classify matches.
type RefSlice struct {
	Region genome.Region
	Bases  []byte
}

// BaseAt returns the uppercase reference base at a 1-based position, or 0
// when the slice does not cover it.
func (s *RefSlice) BaseAt(pos int) byte {
	if s == nil || !s.Region.ContainsPos(pos) {
		return 0
	}
	return upper(s.Bases[pos-s.Region.Start])
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// Expand converts a decoded BAM record into a Read. ref may be nil (or not
// cover the read), in which case aligned bases are recorded as matches and
// no mismatch highlighting happens. A CIGAR whose query length disagrees
// with the sequence fails the record.
func Expand(rec *sam.Record, ref *RefSlice) (Read, error) {
	seq := rec.Seq.Expand()
	if !rec.Cigar.IsValid(len(seq)) {
		return Read{}, tgverr.New(tgverr.MalformedRecord,
			"read %s: cigar %v does not match sequence length %d", rec.Name, rec.Cigar, len(seq))
	}

	start := rec.Start() + 1 // hts is 0-based
	end := rec.End() + 1
	contig := ""
	if rec.Ref != nil {
		contig = rec.Ref.Name()
	}

	strand := genome.StrandForward
	if rec.Flags&sam.Reverse != 0 {
		strand = genome.StrandReverse
	}

	out := Read{
		Name:   rec.Name,
		Region: genome.Region{Contig: contig, Start: start, End: end},
		Strand: strand,
		MapQ:   rec.MapQ,
		Flags:  rec.Flags,
	}

	refPivot := start // 1-based, next reference base to consume
	queryPivot := 0   // 0-based, next query base to consume
	leading := true

	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				base := upper(seq[queryPivot+i])
				op := OpMatch
				if rb := ref.BaseAt(refPivot + i); rb != 0 && rb != 'N' && rb != base {
					op = OpMismatch
				}
				out.Ops = append(out.Ops, BaseOp{Pos: refPivot + i, Op: op, Base: base})
			}
			refPivot += n
			queryPivot += n
			leading = false

		case sam.CigarInsertion:
			after := refPivot - 1
			if leading || after < start {
				// Insertion before any aligned base attaches to the first one.
				after = start
			}
			bases := make([]byte, n)
			for i := 0; i < n; i++ {
				bases[i] = upper(seq[queryPivot+i])
			}
			out.Insertions = append(out.Insertions, Insertion{After: after, Bases: bases})
			queryPivot += n

		case sam.CigarDeletion:
			for i := 0; i < n; i++ {
				out.Ops = append(out.Ops, BaseOp{Pos: refPivot + i, Op: OpDeletion})
			}
			refPivot += n
			leading = false

		case sam.CigarSkipped:
			for i := 0; i < n; i++ {
				out.Ops = append(out.Ops, BaseOp{Pos: refPivot + i, Op: OpRefSkip})
			}
			refPivot += n
			leading = false

		case sam.CigarSoftClipped:
			if leading {
				out.LeadingClip = n
				// Clipped bases hang left of the aligned start.
				for i := 0; i < n; i++ {
					pos := start - n + i
					if pos < 1 {
						continue
					}
					out.Ops = append(out.Ops, BaseOp{Pos: pos, Op: OpSoftClip, Base: upper(seq[queryPivot+i])})
				}
			} else {
				out.TrailingClip = n
				for i := 0; i < n; i++ {
					out.Ops = append(out.Ops, BaseOp{Pos: refPivot + i, Op: OpSoftClip, Base: upper(seq[queryPivot+i])})
				}
			}
			queryPivot += n

		case sam.CigarHardClipped, sam.CigarPadded:
			// no query bases present, no reference span
		}
	}
	return out, nil
}

// BaseAt returns the query base aligned at a 1-based reference position.
// ok is false for uncovered positions, deletions and ref skips.
func (r Read) BaseAt(pos int) (byte, bool) {
	for _, op := range r.Ops {
		if op.Pos != pos {
			continue
		}
		if op.Op == OpMatch || op.Op == OpMismatch {
			return op.Base, true
		}
		return 0, false
	}
	return 0, false
}
