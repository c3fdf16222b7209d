package tracks

import (
	"context"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// lookupCacheSize bounds the name->feature memo; repeated :gene jumps and
// command-line completion should not re-query the source.
const lookupCacheSize = 512

// Source provides gene rows for the index. Implementations exist for the
// remote UCSC MySQL server and for the downloaded local table.
type Source interface {
	// GenesInContig returns every gene on a contig.
	GenesInContig(ctx context.Context, contig string) ([]Gene, error)

	// LookupGene finds a gene by symbol or accession on any contig.
	LookupGene(ctx context.Context, name string) (Gene, error)

	Close() error
}

// Index answers name lookups and next/previous-feature queries. Per-contig
// tracks are loaded from the source once and kept until Invalidate (a
// reference switch). Safe for use from fetch goroutines.
type Index struct {
	src Source

	mu      sync.Mutex
	tracks  map[string]*Track
	lookups *lru.Cache[string, Feature]
}

// NewIndex wraps a source.
func NewIndex(src Source) *Index {
	lookups, _ := lru.New[string, Feature](lookupCacheSize)
	return &Index{src: src, tracks: make(map[string]*Track), lookups: lookups}
}

func (x *Index) track(ctx context.Context, contig string) (*Track, error) {
	x.mu.Lock()
	t, ok := x.tracks[contig]
	x.mu.Unlock()
	if ok {
		return t, nil
	}

	genes, err := x.src.GenesInContig(ctx, contig)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "load gene track")
	}
	t = NewTrack(contig, genes)

	x.mu.Lock()
	// A concurrent loader may have won; keep the first.
	if prev, ok := x.tracks[contig]; ok {
		t = prev
	} else {
		x.tracks[contig] = t
	}
	x.mu.Unlock()
	return t, nil
}

// Invalidate drops loaded tracks and memoized lookups. Call on reference
// switch.
func (x *Index) Invalidate() {
	x.mu.Lock()
	x.tracks = make(map[string]*Track)
	x.lookups.Purge()
	x.mu.Unlock()
}

// Lookup resolves a feature name (case-insensitive) to its span.
func (x *Index) Lookup(ctx context.Context, name string) (Feature, error) {
	key := strings.ToLower(name)
	if f, ok := x.lookups.Get(key); ok {
		return f, nil
	}
	g, err := x.src.LookupGene(ctx, name)
	if err != nil {
		return Feature{}, err
	}
	f := Feature{Kind: KindGene, Name: g.Name, Region: g.Region(), Strand: g.Strand}
	x.lookups.Add(key, f)
	return f, nil
}

// Next returns the count-th feature of kind whose edge is strictly past pos
// in the given direction, clamped to the contig (no wrap-around). ok is
// false when no feature of the kind lies in that direction.
func (x *Index) Next(ctx context.Context, kind Kind, edge Edge, pos genome.Position, forward bool, count int) (Feature, bool, error) {
	t, err := x.track(ctx, pos.Contig)
	if err != nil {
		return Feature{}, false, err
	}
	f, ok := t.Next(kind, edge, pos.Pos, forward, count)
	return f, ok, nil
}

// FeaturesIn returns features overlapping the region in start order.
func (x *Index) FeaturesIn(ctx context.Context, region genome.Region) ([]Feature, error) {
	t, err := x.track(ctx, region.Contig)
	if err != nil {
		return nil, err
	}
	return t.FeaturesIn(region), nil
}

// GenesIn returns full gene models overlapping the region, for the gene track
// rendering (exon/intron/CDS structure).
func (x *Index) GenesIn(ctx context.Context, region genome.Region) ([]Gene, error) {
	t, err := x.track(ctx, region.Contig)
	if err != nil {
		return nil, err
	}
	return t.GenesIn(region), nil
}
