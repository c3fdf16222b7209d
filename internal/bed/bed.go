// Package bed reads BED intervals for the render-only overlay track.
package bed

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// Feature is one BED interval, converted to 1-based half-open coordinates.
type Feature struct {
	Region genome.Region
	Name   string
	Strand genome.Strand
}

// ReadFile parses a BED file. Malformed lines are skipped; header and
// comment lines are ignored.
func ReadFile(path string) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open bed")
	}
	defer f.Close()

	var out []Feature
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		start, err1 := strconv.Atoi(fields[1])
		end, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || start >= end || start < 0 {
			continue
		}
		feat := Feature{
			Region: genome.Region{Contig: fields[0], Start: start + 1, End: end + 1},
		}
		if len(fields) > 3 {
			feat.Name = fields[3]
		}
		if len(fields) > 5 {
			feat.Strand = genome.ParseStrand(fields[5])
		}
		out = append(out, feat)
	}
	if err := scanner.Err(); err != nil {
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "read bed")
	}
	return out, nil
}
