package align

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"go.uber.org/zap"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/logging"
	"github.com/tgvdev/tgv/internal/storage"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// Provider returns reads whose aligned span overlaps a window.
type Provider interface {
	Fetch(ctx context.Context, region genome.Region, ref *RefSlice) ([]Read, error)
	Contigs() []genome.Contig
	Close() error
}

// BAMProvider reads a coordinate-sorted, indexed BAM from any storage URI.
type BAMProvider struct {
	obj storage.Object

	mu     sync.Mutex // the decoder seeks; serialize access
	reader *bam.Reader
	index  *bam.Index
	refs   map[string]*sam.Reference
}

// OpenBAM opens a BAM and its .bai index. An empty indexURI looks for the
// conventional sibling path.
func OpenBAM(ctx context.Context, bamURI, indexURI string) (*BAMProvider, error) {
	obj, err := storage.Open(ctx, bamURI)
	if err != nil {
		return nil, err
	}

	reader, err := bam.NewReader(storage.NewSeeker(obj), 1)
	if err != nil {
		_ = obj.Close()
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "read bam header")
	}

	candidates := []string{indexURI}
	if indexURI == "" {
		candidates = storage.SiblingIndexURIs(bamURI)
	}
	var idxObj storage.Object
	for _, candidate := range candidates {
		idxObj, err = storage.Open(ctx, candidate)
		if err == nil {
			break
		}
	}
	if err != nil {
		_ = obj.Close()
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open bam index")
	}
	idxData, err := storage.ReadAll(idxObj)
	_ = idxObj.Close()
	if err != nil {
		_ = obj.Close()
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "read bam index")
	}
	index, err := bam.ReadIndex(bytes.NewReader(idxData))
	if err != nil {
		_ = obj.Close()
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "parse bam index")
	}

	p := &BAMProvider{
		obj:    obj,
		reader: reader,
		index:  index,
		refs:   make(map[string]*sam.Reference),
	}
	for _, ref := range reader.Header().Refs() {
		p.refs[strings.ToLower(ref.Name())] = ref
	}
	return p, nil
}

func (p *BAMProvider) Close() error {
	_ = p.reader.Close()
	return p.obj.Close()
}

// Contigs lists the reference sequences declared in the BAM header.
func (p *BAMProvider) Contigs() []genome.Contig {
	refs := p.reader.Header().Refs()
	out := make([]genome.Contig, 0, len(refs))
	for _, ref := range refs {
		out = append(out, genome.Contig{Name: ref.Name(), Length: ref.Len()})
	}
	return out
}

func (p *BAMProvider) reference(contig string) *sam.Reference {
	if ref, ok := p.refs[strings.ToLower(contig)]; ok {
		return ref
	}
	// Tolerate chr-prefix mismatches between the reference and the BAM.
	if stripped, ok := strings.CutPrefix(strings.ToLower(contig), "chr"); ok {
		if ref, ok := p.refs[stripped]; ok {
			return ref
		}
	} else if ref, ok := p.refs["chr"+strings.ToLower(contig)]; ok {
		return ref
	}
	return nil
}

// Fetch returns reads overlapping the region, CIGAR-expanded against ref.
// Records with a malformed CIGAR are skipped; the batch still returns.
func (p *BAMProvider) Fetch(ctx context.Context, region genome.Region, ref *RefSlice) ([]Read, error) {
	samRef := p.reference(region.Contig)
	if samRef == nil {
		return nil, tgverr.New(tgverr.UnknownContig, "contig %q not in alignment header", region.Contig)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	chunks, err := p.index.Chunks(samRef, region.Start-1, region.End-1)
	if err != nil {
		// An index with no bins for the window means no reads there.
		return nil, nil
	}
	it, err := bam.NewIterator(p.reader, chunks)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "open bam iterator")
	}
	defer it.Close()

	var out []Read
	malformed := 0
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := it.Record()
		if rec.Flags&sam.Unmapped != 0 {
			continue
		}
		// The iterator over-returns around bin boundaries; keep overlap only.
		if rec.End() < region.Start || rec.Start()+1 >= region.End {
			continue
		}
		read, err := Expand(rec, ref)
		if err != nil {
			malformed++
			continue
		}
		out = append(out, read)
	}
	if err := it.Error(); err != nil {
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "iterate bam records")
	}
	if malformed > 0 {
		logging.Warn("skipped malformed reads",
			zap.Int("count", malformed), zap.String("region", region.String()))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Region.Start != out[j].Region.Start {
			return out[i].Region.Start < out[j].Region.Start
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
