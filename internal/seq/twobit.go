package seq

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// 2bit encodes four bases per byte, T=0 C=1 A=2 G=3, with N runs and masked
// runs stored as block lists. See the UCSC file format reference.
const twoBitSignature = 0x1A412743

var twoBitBases = [4]byte{'T', 'C', 'A', 'G'}

type twoBitSequence struct {
	offset int64

	// loaded lazily on first access
	loaded     bool
	dnaSize    int
	dnaOffset  int64  // file offset of packed DNA
	nStarts    []int  // 0-based starts of N blocks
	nSizes     []int
	maskStarts []int
	maskSizes  []int
}

// TwoBitFile reads sequence ranges from a local .2bit file.
type TwoBitFile struct {
	f *os.File

	mu        sync.Mutex
	sequences map[string]*twoBitSequence
}

// OpenTwoBit opens a .2bit file and reads its sequence index.
func OpenTwoBit(path string) (*TwoBitFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open 2bit")
	}
	tb := &TwoBitFile{f: f, sequences: make(map[string]*twoBitSequence)}
	if err := tb.readIndex(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return tb, nil
}

func (tb *TwoBitFile) Close() error { return tb.f.Close() }

// Contigs returns the sequence names in the file.
func (tb *TwoBitFile) Contigs() []string {
	names := make([]string, 0, len(tb.sequences))
	for name := range tb.sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContigLength returns the base count of a sequence.
func (tb *TwoBitFile) ContigLength(name string) (int, error) {
	s, err := tb.sequence(name)
	if err != nil {
		return 0, err
	}
	return s.dnaSize, nil
}

func (tb *TwoBitFile) readIndex() error {
	var header struct {
		Signature, Version, SequenceCount, Reserved uint32
	}
	if err := binary.Read(io.NewSectionReader(tb.f, 0, 16), binary.LittleEndian, &header); err != nil {
		return tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit header")
	}
	if header.Signature != twoBitSignature {
		return tgverr.New(tgverr.CacheCorruption, "bad 2bit signature %#x", header.Signature)
	}
	if header.Version != 0 {
		return tgverr.New(tgverr.CacheCorruption, "unsupported 2bit version %d", header.Version)
	}

	r := &offsetReader{r: tb.f, off: 16}
	for i := uint32(0); i < header.SequenceCount; i++ {
		nameSize, err := r.byte()
		if err != nil {
			return tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit index")
		}
		name := make([]byte, nameSize)
		if err := r.bytes(name); err != nil {
			return tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit index")
		}
		offset, err := r.uint32()
		if err != nil {
			return tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit index")
		}
		tb.sequences[string(name)] = &twoBitSequence{offset: int64(offset)}
	}
	return nil
}

func (tb *TwoBitFile) sequence(name string) (*twoBitSequence, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	s, ok := tb.sequences[name]
	if !ok {
		// 2bit files from UCSC name sequences with the chr prefix.
		s, ok = tb.sequences["chr"+strings.TrimPrefix(name, "chr")]
		if !ok {
			return nil, tgverr.New(tgverr.UnknownContig, "contig %q not in 2bit file", name)
		}
	}
	if s.loaded {
		return s, nil
	}

	r := &offsetReader{r: tb.f, off: s.offset}
	dnaSize, err := r.uint32()
	if err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit record")
	}
	s.dnaSize = int(dnaSize)
	if s.nStarts, s.nSizes, err = r.blockList(); err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit N blocks")
	}
	if s.maskStarts, s.maskSizes, err = r.blockList(); err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit mask blocks")
	}
	if _, err := r.uint32(); err != nil { // reserved
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit record")
	}
	s.dnaOffset = r.off
	s.loaded = true
	return s, nil
}

// Fetch implements Provider. The region end is clamped to the sequence size.
func (tb *TwoBitFile) Fetch(_ context.Context, region genome.Region) ([]byte, error) {
	s, err := tb.sequence(region.Contig)
	if err != nil {
		return nil, err
	}

	start := region.Start - 1 // 0-based
	end := region.End - 1
	if start < 0 || start >= s.dnaSize {
		return nil, tgverr.New(tgverr.OutOfBounds, "%s outside contig", region)
	}
	if end > s.dnaSize {
		end = s.dnaSize
	}

	firstByte := start / 4
	lastByte := (end + 3) / 4
	packed := make([]byte, lastByte-firstByte)
	if _, err := tb.f.ReadAt(packed, s.dnaOffset+int64(firstByte)); err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "read 2bit dna")
	}

	out := make([]byte, end-start)
	for i := range out {
		pos := start + i
		b := packed[pos/4-firstByte]
		shift := uint(6 - 2*(pos%4))
		out[i] = twoBitBases[(b>>shift)&3]
	}

	// Overlay N blocks. Masked (soft repeat) runs stay uppercase.
	for i, ns := range s.nStarts {
		ne := ns + s.nSizes[i]
		for p := max(ns, start); p < min(ne, end); p++ {
			out[p-start] = 'N'
		}
	}

	// Pad short reads at the contig edge so callers get the full window.
	if len(out) < region.Len() {
		pad := make([]byte, region.Len())
		copy(pad, out)
		for i := len(out); i < len(pad); i++ {
			pad[i] = 'N'
		}
		out = pad
	}
	return out, nil
}

// offsetReader tracks a file offset across small sequential reads.
type offsetReader struct {
	r   io.ReaderAt
	off int64
}

func (r *offsetReader) bytes(p []byte) error {
	n, err := r.r.ReadAt(p, r.off)
	r.off += int64(n)
	if err != nil && !(err == io.EOF && n == len(p)) {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("short read at %d", r.off)
	}
	return nil
}

func (r *offsetReader) byte() (byte, error) {
	var b [1]byte
	err := r.bytes(b[:])
	return b[0], err
}

func (r *offsetReader) uint32() (uint32, error) {
	var b [4]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *offsetReader) blockList() (starts, sizes []int, err error) {
	count, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}
	starts = make([]int, count)
	sizes = make([]int, count)
	for i := range starts {
		v, err := r.uint32()
		if err != nil {
			return nil, nil, err
		}
		starts[i] = int(v)
	}
	for i := range sizes {
		v, err := r.uint32()
		if err != nil {
			return nil, nil, err
		}
		sizes[i] = int(v)
	}
	return starts, sizes, nil
}
