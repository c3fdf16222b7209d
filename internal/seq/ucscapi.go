package seq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

const (
	defaultAPIBase = "https://api.genome.ucsc.edu"
	userAgent      = "tgv/0.1"
	requestTimeout = 15 * time.Second

	// maxChunkBases is the largest range requested per API call; bigger
	// windows are split and reassembled here.
	maxChunkBases = 500_000
)

// UCSCClient fetches reference sequence from the UCSC REST API.
type UCSCClient struct {
	base     *url.URL
	http     *http.Client
	assembly string
}

// NewUCSCClient builds a client for one assembly. An empty base uses the
// public API endpoint.
func NewUCSCClient(base, assembly string) (*UCSCClient, error) {
	if strings.TrimSpace(base) == "" {
		base = defaultAPIBase
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base: %w", err)
	}
	return &UCSCClient{
		base:     parsed,
		http:     &http.Client{Timeout: requestTimeout},
		assembly: assembly,
	}, nil
}

func (c *UCSCClient) Close() error { return nil }

// Fetch implements Provider, splitting windows beyond the API chunk limit.
func (c *UCSCClient) Fetch(ctx context.Context, region genome.Region) ([]byte, error) {
	out := make([]byte, 0, region.Len())
	for start := region.Start; start < region.End; start += maxChunkBases {
		end := min(start+maxChunkBases, region.End)
		chunk, err := c.fetchChunk(ctx, genome.Region{Contig: region.Contig, Start: start, End: end})
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

type sequenceResponse struct {
	DNA   string `json:"dna"`
	Error string `json:"error"`
}

func (c *UCSCClient) fetchChunk(ctx context.Context, region genome.Region) ([]byte, error) {
	u := *c.base
	u.Path = "/getData/sequence"
	q := u.Query()
	q.Set("genome", c.assembly)
	q.Set("chrom", region.Contig)
	// The API speaks 0-based half-open coordinates.
	q.Set("start", fmt.Sprintf("%d", region.Start-1))
	q.Set("end", fmt.Sprintf("%d", region.End-1))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.Internal, err, "build sequence request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "fetch sequence")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, tgverr.New(tgverr.DataSourceUnavailable,
			"sequence api returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload sequenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "decode sequence response")
	}
	if payload.Error != "" {
		return nil, tgverr.New(tgverr.DataSourceUnavailable, "sequence api: %s", payload.Error)
	}

	dna := []byte(strings.ToUpper(payload.DNA))
	if len(dna) < region.Len() {
		// Clamped at the contig edge; pad so callers see the full window.
		pad := make([]byte, region.Len())
		copy(pad, dna)
		for i := len(dna); i < len(pad); i++ {
			pad[i] = 'N'
		}
		dna = pad
	}
	return dna[:region.Len()], nil
}
