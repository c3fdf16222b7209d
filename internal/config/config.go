// Package config resolves the tgv cache directory layout and the reference
// genome registry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultHome = "~/.tgv"

	// Per-genome cache file names.
	SequenceFile = "sequence.2bit"
	GenesFile    = "genes.db"
	AliasFile    = "aliases.tsv"
	ContigsFile  = "contigs.tsv"
	LogFile      = "tgv.log"
)

// Home returns the tgv state directory, honoring $TGV_HOME.
func Home() (string, error) {
	if env := strings.TrimSpace(os.Getenv("TGV_HOME")); env != "" {
		return expandPath(env)
	}
	return expandPath(defaultHome)
}

// GenomeDir returns the cache directory for one genome.
func GenomeDir(home, genome string) string {
	return filepath.Join(home, genome)
}

// LogPath returns the log file location.
func LogPath(home string) string {
	return filepath.Join(home, LogFile)
}

// WriteFileAtomic writes via a temp file and rename so readers never see a
// partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
