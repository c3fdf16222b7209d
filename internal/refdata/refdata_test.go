package refdata

import (
	"testing"

	"github.com/tgvdev/tgv/internal/genome"
)

func TestContigsTSVRoundTrip(t *testing.T) {
	home := t.TempDir()
	contigs := []genome.Contig{
		{Name: "chr1", Length: 248_956_422},
		{Name: "chr17", Length: 83_257_441},
	}
	if err := WriteContigsTSV(home, "hg38", contigs); err != nil {
		t.Fatalf("WriteContigsTSV: %v", err)
	}
	if err := WriteAliasTSV(home, "hg38", map[string]string{"NC_000017.11": "chr17"}); err != nil {
		t.Fatalf("WriteAliasTSV: %v", err)
	}

	set, err := LoadContigs(home, "hg38")
	if err != nil {
		t.Fatalf("LoadContigs: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
	if c, ok := set.Resolve("17"); !ok || c.Length != 83_257_441 {
		t.Fatalf("Resolve(17) = %+v, %v", c, ok)
	}
	if c, ok := set.Resolve("NC_000017.11"); !ok || c.Name != "chr17" {
		t.Fatalf("alias resolve = %+v, %v", c, ok)
	}
}

func TestLoadContigsMissingDirFails(t *testing.T) {
	if _, err := LoadContigs(t.TempDir(), "nope"); err == nil {
		t.Fatal("LoadContigs on empty dir should fail")
	}
}

func TestHasLocalDataRequiresAllFiles(t *testing.T) {
	home := t.TempDir()
	if HasLocalData(home, "hg38") {
		t.Fatal("empty dir should not count as local data")
	}
	if err := WriteContigsTSV(home, "hg38", []genome.Contig{{Name: "chr1", Length: 10}}); err != nil {
		t.Fatalf("WriteContigsTSV: %v", err)
	}
	if HasLocalData(home, "hg38") {
		t.Fatal("contigs alone should not count as local data")
	}
}
