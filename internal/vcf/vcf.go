// Package vcf reads variant positions for the render-only overlay track.
// Only the site columns are kept; genotypes and INFO are ignored.
package vcf

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tgvdev/tgv/internal/tgverr"
)

// Variant is one VCF site.
type Variant struct {
	Contig string
	Pos    int // 1-based
	Ref    string
	Alt    string
	ID     string
}

// ReadFile parses a VCF (optionally bgzip/gzip compressed). Malformed data
// lines are skipped.
func ReadFile(path string) ([]Variant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open vcf")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".bgz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "decompress vcf")
		}
		defer gz.Close()
		r = gz
	}

	var out []Variant
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 6)
		if len(fields) < 5 {
			continue
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil || pos < 1 {
			continue
		}
		out = append(out, Variant{
			Contig: fields[0],
			Pos:    pos,
			ID:     fields[2],
			Ref:    fields[3],
			Alt:    fields[4],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "read vcf")
	}
	return out, nil
}
