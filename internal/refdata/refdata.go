// Package refdata populates and loads the per-genome local cache: a 2bit
// sequence file, a gene table, and contig/alias tables. Files are replaced
// atomically so a concurrent viewer never sees a partial download.
package refdata

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tgvdev/tgv/internal/config"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// LoadContigs reads contigs.tsv (+ aliases.tsv when present) from the
// genome's cache directory.
func LoadContigs(home, assembly string) (*genome.ContigSet, error) {
	dir := config.GenomeDir(home, assembly)

	contigs, err := readContigsTSV(filepath.Join(dir, config.ContigsFile))
	if err != nil {
		return nil, err
	}
	set := genome.NewContigSet(contigs)

	aliases, err := readAliasTSV(filepath.Join(dir, config.AliasFile))
	if err == nil {
		for alias, canonical := range aliases {
			set.AddAlias(alias, canonical)
		}
	}
	return set, nil
}

// HasLocalData reports whether the genome's cache directory looks complete.
func HasLocalData(home, assembly string) bool {
	dir := config.GenomeDir(home, assembly)
	for _, name := range []string{config.ContigsFile, config.SequenceFile, config.GenesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func readContigsTSV(path string) ([]genome.Contig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open contig table")
	}
	defer f.Close()

	var out []genome.Contig
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, lengthStr, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, tgverr.New(tgverr.CacheCorruption, "bad contig line %q in %s", line, path)
		}
		length, err := strconv.Atoi(strings.TrimSpace(lengthStr))
		if err != nil || length <= 0 {
			return nil, tgverr.New(tgverr.CacheCorruption, "bad contig length in %q", line)
		}
		out = append(out, genome.Contig{Name: name, Length: length})
	}
	if err := scanner.Err(); err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "read contig table")
	}
	if len(out) == 0 {
		return nil, tgverr.New(tgverr.CacheCorruption, "empty contig table %s", path)
	}
	return out, nil
}

func readAliasTSV(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		alias, canonical, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		out[alias] = strings.TrimSpace(canonical)
	}
	return out, scanner.Err()
}

// WriteContigsTSV persists a contig table atomically.
func WriteContigsTSV(home, assembly string, contigs []genome.Contig) error {
	var b strings.Builder
	for _, c := range contigs {
		fmt.Fprintf(&b, "%s\t%d\n", c.Name, c.Length)
	}
	path := filepath.Join(config.GenomeDir(home, assembly), config.ContigsFile)
	return config.WriteFileAtomic(path, []byte(b.String()))
}

// WriteAliasTSV persists an alias table atomically.
func WriteAliasTSV(home, assembly string, aliases map[string]string) error {
	var b strings.Builder
	for alias, canonical := range aliases {
		fmt.Fprintf(&b, "%s\t%s\n", alias, canonical)
	}
	path := filepath.Join(config.GenomeDir(home, assembly), config.AliasFile)
	return config.WriteFileAtomic(path, []byte(b.String()))
}
