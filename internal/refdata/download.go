package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tgvdev/tgv/internal/config"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/logging"
	"github.com/tgvdev/tgv/internal/tgverr"
	"github.com/tgvdev/tgv/internal/tracks"
)

const (
	ucscAPIBase      = "https://api.genome.ucsc.edu"
	ucscDownloadBase = "https://hgdownload.soe.ucsc.edu/goldenPath"

	downloadTimeout = 30 * time.Minute
)

// Download populates the local cache for one assembly: contig table, 2bit
// sequence, gene database and alias table. Progress goes to w.
func Download(ctx context.Context, w io.Writer, home, assembly string) error {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	fmt.Fprintf(w, "downloading %s into %s\n", assembly, config.GenomeDir(home, assembly))

	contigs, err := FetchChromosomes(ctx, assembly)
	if err != nil {
		return err
	}
	if err := WriteContigsTSV(home, assembly, contigs); err != nil {
		return err
	}
	fmt.Fprintf(w, "  contigs: %d\n", len(contigs))

	if err := downloadSequence(ctx, w, home, assembly); err != nil {
		return err
	}

	if err := downloadGenes(ctx, w, home, assembly, contigs); err != nil {
		return err
	}

	if err := downloadAliases(ctx, home, assembly); err != nil {
		// Alias tables are optional; many assemblies do not ship one.
		logging.Warn("no alias table", zap.String("assembly", assembly), zap.Error(err))
	}

	fmt.Fprintln(w, "done")
	return nil
}

type chromosomesResponse struct {
	Chromosomes map[string]int `json:"chromosomes"`
}

// FetchChromosomes lists an assembly's contigs from the UCSC API.
func FetchChromosomes(ctx context.Context, assembly string) ([]genome.Contig, error) {
	url := fmt.Sprintf("%s/list/chromosomes?genome=%s", ucscAPIBase, assembly)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.Internal, err, "build chromosome request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "list chromosomes")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, tgverr.New(tgverr.DataSourceUnavailable,
			"chromosome listing for %s returned %s", assembly, resp.Status)
	}

	var payload chromosomesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "decode chromosome listing")
	}

	out := make([]genome.Contig, 0, len(payload.Chromosomes))
	for name, length := range payload.Chromosomes {
		out = append(out, genome.Contig{Name: name, Length: length})
	}
	// Shorter names first, then lexicographic: chr1..chr9 (with chrM, chrX,
	// chrY) precede chr10..chr22, and long scaffold names come last.
	sort.Slice(out, func(i, j int) bool {
		if li, lj := len(out[i].Name), len(out[j].Name); li != lj {
			return li < lj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// downloadSequence streams the assembly 2bit to a temp file and renames it
// into place.
func downloadSequence(ctx context.Context, w io.Writer, home, assembly string) error {
	url := fmt.Sprintf("%s/%s/bigZips/%s.2bit", ucscDownloadBase, assembly, assembly)
	fmt.Fprintf(w, "  sequence: %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return tgverr.Wrap(tgverr.Internal, err, "build 2bit request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return tgverr.Wrap(tgverr.DataSourceUnavailable, err, "download 2bit")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return tgverr.New(tgverr.DataSourceUnavailable, "2bit download returned %s", resp.Status)
	}

	dir := config.GenomeDir(home, assembly)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tgverr.Wrap(tgverr.Internal, err, "create genome dir")
	}
	tmp, err := os.CreateTemp(dir, ".2bit-*")
	if err != nil {
		return tgverr.Wrap(tgverr.Internal, err, "create temp 2bit")
	}
	name := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return tgverr.Wrap(tgverr.DataSourceUnavailable, err, "stream 2bit")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return tgverr.Wrap(tgverr.Internal, err, "close temp 2bit")
	}
	if err := os.Rename(name, filepath.Join(dir, config.SequenceFile)); err != nil {
		_ = os.Remove(name)
		return tgverr.Wrap(tgverr.Internal, err, "install 2bit")
	}
	return nil
}

// downloadGenes copies the UCSC gene table into the local sqlite database.
func downloadGenes(ctx context.Context, w io.Writer, home, assembly string, contigs []genome.Contig) error {
	src, err := tracks.OpenUCSC(ctx, tracks.UCSCHostUS, assembly)
	if err != nil {
		return err
	}
	defer src.Close()

	dir := config.GenomeDir(home, assembly)
	tmpPath := filepath.Join(dir, ".genes-tmp.db")
	_ = os.Remove(tmpPath)
	dst, err := tracks.OpenLocal(tmpPath)
	if err != nil {
		return err
	}

	total := 0
	for _, contig := range contigs {
		genes, err := src.GenesInContig(ctx, contig.Name)
		if err != nil {
			_ = dst.Close()
			_ = os.Remove(tmpPath)
			return err
		}
		if len(genes) == 0 {
			continue
		}
		if err := dst.InsertGenes(ctx, genes); err != nil {
			_ = dst.Close()
			_ = os.Remove(tmpPath)
			return err
		}
		total += len(genes)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return tgverr.Wrap(tgverr.Internal, err, "close gene db")
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, config.GenesFile)); err != nil {
		_ = os.Remove(tmpPath)
		return tgverr.Wrap(tgverr.Internal, err, "install gene db")
	}
	fmt.Fprintf(w, "  genes: %d\n", total)
	return nil
}

// downloadAliases pulls the chromAlias table when the assembly has one.
func downloadAliases(ctx context.Context, home, assembly string) error {
	aliases, err := tracks.FetchAliases(ctx, tracks.UCSCHostUS, assembly)
	if err != nil {
		return err
	}
	if len(aliases) == 0 {
		return nil
	}
	return WriteAliasTSV(home, assembly, aliases)
}
