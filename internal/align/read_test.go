package align

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

var chr1 = func() *sam.Reference {
	ref, _ := sam.NewReference("chr1", "", "", 1000, nil, nil)
	// Records can only link to a reference that a header has registered.
	_, _ = sam.NewHeader(nil, []*sam.Reference{ref})
	return ref
}()

func newRecord(t *testing.T, name string, pos int, cigar []sam.CigarOp, seq string) *sam.Record {
	t.Helper()
	qual := make([]byte, len(seq))
	for i := range qual {
		qual[i] = 30
	}
	rec, err := sam.NewRecord(name, chr1, nil, pos, -1, 0, 40, cigar, []byte(seq), qual, nil)
	require.NoError(t, err)
	return rec
}

func refSlice(start int, bases string) *RefSlice {
	return &RefSlice{
		Region: genome.Region{Contig: "chr1", Start: start, End: start + len(bases)},
		Bases:  []byte(bases),
	}
}

func opsAt(r Read, pos int) []BaseOp {
	var out []BaseOp
	for _, op := range r.Ops {
		if op.Pos == pos {
			out = append(out, op)
		}
	}
	return out
}

func TestExpandMatchAndMismatch(t *testing.T) {
	// Read ACGT aligned at 1-based 101..104 against reference ACTT.
	rec := newRecord(t, "r1", 100, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)}, "ACGT")
	read, err := Expand(rec, refSlice(101, "ACTT"))
	require.NoError(t, err)

	assert.Equal(t, genome.Region{Contig: "chr1", Start: 101, End: 105}, read.Region)
	assert.Equal(t, genome.StrandForward, read.Strand)
	require.Len(t, read.Ops, 4)
	assert.Equal(t, BaseOp{Pos: 101, Op: OpMatch, Base: 'A'}, read.Ops[0])
	assert.Equal(t, BaseOp{Pos: 103, Op: OpMismatch, Base: 'G'}, read.Ops[2])
	assert.Equal(t, BaseOp{Pos: 104, Op: OpMatch, Base: 'T'}, read.Ops[3])
}

func TestExpandWithoutReferenceNeverMismatches(t *testing.T) {
	rec := newRecord(t, "r1", 100, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)}, "ACGT")
	read, err := Expand(rec, nil)
	require.NoError(t, err)
	for _, op := range read.Ops {
		assert.Equal(t, OpMatch, op.Op)
	}
}

func TestExpandDeletionAndSkip(t *testing.T) {
	// 2M 3D 2M then 2M 3N 2M.
	for _, tc := range []struct {
		op   sam.CigarOpType
		want Op
	}{
		{sam.CigarDeletion, OpDeletion},
		{sam.CigarSkipped, OpRefSkip},
	} {
		rec := newRecord(t, "r1", 100, []sam.CigarOp{
			sam.NewCigarOp(sam.CigarMatch, 2),
			sam.NewCigarOp(tc.op, 3),
			sam.NewCigarOp(sam.CigarMatch, 2),
		}, "ACGT")
		read, err := Expand(rec, nil)
		require.NoError(t, err)

		assert.Equal(t, 105, read.Region.Start+4, "aligned span covers the gap")
		assert.Equal(t, 108, read.Region.End)
		for pos := 103; pos <= 105; pos++ {
			ops := opsAt(read, pos)
			require.Len(t, ops, 1)
			assert.Equal(t, tc.want, ops[0].Op)
		}
		// Aligned bases resume after the gap.
		ops := opsAt(read, 106)
		require.Len(t, ops, 1)
		assert.Equal(t, byte('G'), ops[0].Base)
	}
}

func TestExpandInsertionAttachesToPrecedingBase(t *testing.T) {
	// 2M 2I 2M: insertion follows reference position 102.
	rec := newRecord(t, "r1", 100, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarMatch, 2),
		sam.NewCigarOp(sam.CigarInsertion, 2),
		sam.NewCigarOp(sam.CigarMatch, 2),
	}, "ACGTAC")
	read, err := Expand(rec, nil)
	require.NoError(t, err)

	require.Len(t, read.Insertions, 1)
	assert.Equal(t, 102, read.Insertions[0].After)
	assert.Equal(t, "GT", string(read.Insertions[0].Bases))
	// The reference span ignores the insertion.
	assert.Equal(t, genome.Region{Contig: "chr1", Start: 101, End: 105}, read.Region)
}

func TestExpandInsertionAtReadStartAttachesToFirstAlignedBase(t *testing.T) {
	rec := newRecord(t, "r1", 100, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarInsertion, 3),
		sam.NewCigarOp(sam.CigarMatch, 2),
	}, "ACGTA")
	read, err := Expand(rec, nil)
	require.NoError(t, err)

	require.Len(t, read.Insertions, 1)
	assert.Equal(t, 101, read.Insertions[0].After)
	assert.Equal(t, "ACG", string(read.Insertions[0].Bases))
}

func TestExpandSoftClips(t *testing.T) {
	// 3S 4M 2S at 1-based 101: leading clips hang at 98-100, trailing at 105-106.
	rec := newRecord(t, "r1", 100, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarSoftClipped, 3),
		sam.NewCigarOp(sam.CigarMatch, 4),
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
	}, "ACGTACGTA")
	read, err := Expand(rec, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, read.LeadingClip)
	assert.Equal(t, 2, read.TrailingClip)
	assert.Equal(t, 98, read.StackStart())
	assert.Equal(t, 107, read.StackEnd())

	ops := opsAt(read, 98)
	require.Len(t, ops, 1)
	assert.Equal(t, BaseOp{Pos: 98, Op: OpSoftClip, Base: 'A'}, ops[0])
	ops = opsAt(read, 106)
	require.Len(t, ops, 1)
	assert.Equal(t, BaseOp{Pos: 106, Op: OpSoftClip, Base: 'A'}, ops[0])
}

func TestExpandLeadingClipAtContigStartIsTruncated(t *testing.T) {
	// Aligned at base 2 with 4 leading clips; clipped bases before base 1
	// are dropped, and stacking never goes below 1.
	rec := newRecord(t, "r1", 1, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarSoftClipped, 4),
		sam.NewCigarOp(sam.CigarMatch, 2),
	}, "ACGTAC")
	read, err := Expand(rec, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, read.StackStart())
	var clipPositions []int
	for _, op := range read.Ops {
		if op.Op == OpSoftClip {
			clipPositions = append(clipPositions, op.Pos)
		}
	}
	assert.Equal(t, []int{1}, clipPositions)
}

func TestExpandHardClipAndPadAreSkipped(t *testing.T) {
	rec := newRecord(t, "r1", 100, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarHardClipped, 5),
		sam.NewCigarOp(sam.CigarMatch, 4),
		sam.NewCigarOp(sam.CigarHardClipped, 2),
	}, "ACGT")
	read, err := Expand(rec, nil)
	require.NoError(t, err)
	assert.Len(t, read.Ops, 4)
	assert.Zero(t, read.LeadingClip)
}

func TestExpandMalformedCigarFailsTheRead(t *testing.T) {
	rec := newRecord(t, "r1", 100, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)}, "ACGT")
	_, err := Expand(rec, nil)
	require.Error(t, err)
	assert.Equal(t, tgverr.MalformedRecord, tgverr.KindOf(err))
}

func TestReverseStrandFlag(t *testing.T) {
	rec := newRecord(t, "r1", 100, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)}, "ACGT")
	rec.Flags |= sam.Reverse
	read, err := Expand(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, genome.StrandReverse, read.Strand)
}
