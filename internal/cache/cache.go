// Package cache keeps fetched region payloads (sequence, reads, features)
// keyed by contig and interval. It computes the minimal missing sub-intervals
// for a request, coalesces overlapping in-flight fetches, tags everything
// with a generation so reference switches discard stale completions, and
// evicts least-recently-used intervals under a byte budget (the visible
// interval is pinned).
//
// The store is mutated only from the event loop: the viewer calls Plan before
// spawning fetches and Complete/Fail when their messages arrive.
package cache

import (
	"github.com/biogo/store/llrb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/logging"
)

// Funcs adapts a payload type to the store: cutting to a sub-interval,
// joining coordinate-ordered (possibly overlapping) parts, and sizing for
// eviction.
type Funcs[T any] struct {
	Cut  func(T, genome.Region) T
	Join func([]T) T
	Size func(T) int64
}

type entry[T any] struct {
	region  genome.Region
	payload T
	bytes   int64
	lastUse uint64
}

func (e *entry[T]) Compare(c llrb.Comparable) int {
	return e.region.Start - c.(*entry[T]).region.Start
}

type flight struct {
	id     string
	region genome.Region
	gen    uint64
}

// Store is one data kind's cache.
type Store[T any] struct {
	name     string
	funcs    Funcs[T]
	maxBytes int64

	gen      uint64
	clock    uint64
	bytes    int64
	pinned   genome.Region
	contigs  map[string]*llrb.Tree
	inflight []flight
}

// New builds a store. maxBytes <= 0 disables eviction.
func New[T any](name string, maxBytes int64, funcs Funcs[T]) *Store[T] {
	return &Store[T]{
		name:     name,
		funcs:    funcs,
		maxBytes: maxBytes,
		contigs:  make(map[string]*llrb.Tree),
	}
}

// Generation returns the current generation; completions must echo it.
func (s *Store[T]) Generation() uint64 { return s.gen }

// InvalidateAll bumps the generation. Entries drop immediately; in-flight
// fetches from earlier generations are discarded when they complete.
func (s *Store[T]) InvalidateAll() {
	s.gen++
	s.contigs = make(map[string]*llrb.Tree)
	s.inflight = nil
	s.bytes = 0
}

// Pin marks the interval that must never be evicted (the visible window).
func (s *Store[T]) Pin(region genome.Region) { s.pinned = region }

// overlapping returns cache entries overlapping the region in start order.
func (s *Store[T]) overlapping(region genome.Region) []*entry[T] {
	tree, ok := s.contigs[region.Contig]
	if !ok {
		return nil
	}
	var out []*entry[T]
	tree.Do(func(c llrb.Comparable) bool {
		e := c.(*entry[T])
		if e.region.Start >= region.End {
			return true // past the window, stop
		}
		if e.region.Overlaps(region) {
			out = append(out, e)
		}
		return false
	})
	return out
}

// Covered assembles the payload for a fully cached region. ok is false when
// any sub-interval is missing.
func (s *Store[T]) Covered(region genome.Region) (T, bool) {
	var zero T
	entries := s.overlapping(region)
	next := region.Start
	for _, e := range entries {
		if e.region.Start > next {
			return zero, false
		}
		next = max(next, e.region.End)
	}
	if next < region.End {
		return zero, false
	}

	s.clock++
	parts := make([]T, 0, len(entries))
	for _, e := range entries {
		e.lastUse = s.clock
		parts = append(parts, s.funcs.Cut(e.payload, region))
	}
	if len(parts) == 1 {
		return parts[0], true
	}
	return s.funcs.Join(parts), true
}

// Plan returns the minimal sub-intervals of region that are neither cached
// nor already being fetched, and registers them as in-flight. Two callers
// planning overlapping regions share the first caller's fetches.
func (s *Store[T]) Plan(region genome.Region) []genome.Region {
	missing := s.subtractEntries(region)
	missing = s.subtractInflight(missing)
	for _, m := range missing {
		f := flight{id: uuid.NewString(), region: m, gen: s.gen}
		s.inflight = append(s.inflight, f)
		logging.Debug("fetch planned",
			zap.String("kind", s.name), zap.String("region", m.String()), zap.String("id", f.id))
	}
	return missing
}

func (s *Store[T]) subtractEntries(region genome.Region) []genome.Region {
	var missing []genome.Region
	next := region.Start
	for _, e := range s.overlapping(region) {
		if e.region.Start > next {
			missing = append(missing, genome.Region{Contig: region.Contig, Start: next, End: e.region.Start})
		}
		next = max(next, e.region.End)
	}
	if next < region.End {
		missing = append(missing, genome.Region{Contig: region.Contig, Start: next, End: region.End})
	}
	return missing
}

func (s *Store[T]) subtractInflight(regions []genome.Region) []genome.Region {
	var out []genome.Region
	for _, r := range regions {
		pieces := []genome.Region{r}
		for _, f := range s.inflight {
			if f.gen != s.gen {
				continue
			}
			var rest []genome.Region
			for _, p := range pieces {
				if !p.Overlaps(f.region) {
					rest = append(rest, p)
					continue
				}
				if p.Start < f.region.Start {
					rest = append(rest, genome.Region{Contig: p.Contig, Start: p.Start, End: f.region.Start})
				}
				if p.End > f.region.End {
					rest = append(rest, genome.Region{Contig: p.Contig, Start: f.region.End, End: p.End})
				}
			}
			pieces = rest
		}
		out = append(out, pieces...)
	}
	return out
}

// Complete stores a fetched payload. Stale generations are dropped silently;
// overlapping entries are merged rather than overwritten. It reports whether
// the payload was applied.
func (s *Store[T]) Complete(region genome.Region, gen uint64, payload T) bool {
	s.clearInflight(region, gen)
	if gen != s.gen {
		logging.Debug("stale completion dropped",
			zap.String("kind", s.name), zap.String("region", region.String()))
		return false
	}

	merged := region
	parts := []T{payload}
	var leftParts, rightParts []T
	for _, e := range s.overlapping(region) {
		merged = merged.Union(e.region)
		if e.region.Start < region.Start {
			leftParts = append(leftParts, s.funcs.Cut(e.payload,
				genome.Region{Contig: region.Contig, Start: e.region.Start, End: region.Start}))
		}
		if e.region.End > region.End {
			rightParts = append(rightParts, s.funcs.Cut(e.payload,
				genome.Region{Contig: region.Contig, Start: region.End, End: e.region.End}))
		}
		s.remove(e)
	}
	parts = append(leftParts, parts...)
	parts = append(parts, rightParts...)

	combined := parts[0]
	if len(parts) > 1 {
		combined = s.funcs.Join(parts)
	}
	s.insert(&entry[T]{region: merged, payload: combined, bytes: s.funcs.Size(combined)})
	s.evict()
	return true
}

// Fail clears the in-flight mark so a later redraw can reissue the fetch.
func (s *Store[T]) Fail(region genome.Region, gen uint64) {
	s.clearInflight(region, gen)
}

func (s *Store[T]) clearInflight(region genome.Region, gen uint64) {
	kept := s.inflight[:0]
	for _, f := range s.inflight {
		if f.gen == gen && f.region == region {
			continue
		}
		kept = append(kept, f)
	}
	s.inflight = kept
}

func (s *Store[T]) insert(e *entry[T]) {
	tree, ok := s.contigs[e.region.Contig]
	if !ok {
		tree = &llrb.Tree{}
		s.contigs[e.region.Contig] = tree
	}
	s.clock++
	e.lastUse = s.clock
	tree.Insert(e)
	s.bytes += e.bytes
}

func (s *Store[T]) remove(e *entry[T]) {
	if tree, ok := s.contigs[e.region.Contig]; ok {
		tree.Delete(e)
		s.bytes -= e.bytes
	}
}

// evict drops least-recently-used entries until under budget. The pinned
// interval is skipped.
func (s *Store[T]) evict() {
	if s.maxBytes <= 0 {
		return
	}
	for s.bytes > s.maxBytes {
		var oldest *entry[T]
		for _, tree := range s.contigs {
			tree.Do(func(c llrb.Comparable) bool {
				e := c.(*entry[T])
				if e.region.Overlaps(s.pinned) {
					return false
				}
				if oldest == nil || e.lastUse < oldest.lastUse {
					oldest = e
				}
				return false
			})
		}
		if oldest == nil {
			return // everything left is pinned
		}
		logging.Debug("evicting cached interval",
			zap.String("kind", s.name), zap.String("region", oldest.region.String()))
		s.remove(oldest)
	}
}

// Bytes returns the cached payload size, for tests and diagnostics.
func (s *Store[T]) Bytes() int64 { return s.bytes }

// InflightCount returns the number of registered in-flight fetches.
func (s *Store[T]) InflightCount() int {
	n := 0
	for _, f := range s.inflight {
		if f.gen == s.gen {
			n++
		}
	}
	return n
}
