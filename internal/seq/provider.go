// Package seq provides reference sequence for contig windows, either from a
// local 2bit file, from the UCSC sequence API, or as a deterministic N fill
// when the reference layer is disabled.
package seq

import (
	"bytes"
	"context"

	"github.com/tgvdev/tgv/internal/genome"
)

// Provider returns uppercase IUPAC bases ('N' for unknown) for a window.
// Implementations split oversized windows internally; the caller always sees
// one result covering the full region.
type Provider interface {
	Fetch(ctx context.Context, region genome.Region) ([]byte, error)
	Close() error
}

// NoneProvider serves an all-N sequence; used with --no-reference. Consumers
// degrade gracefully (no mismatch highlighting against N).
type NoneProvider struct{}

func (NoneProvider) Fetch(_ context.Context, region genome.Region) ([]byte, error) {
	return bytes.Repeat([]byte{'N'}, region.Len()), nil
}

func (NoneProvider) Close() error { return nil }
