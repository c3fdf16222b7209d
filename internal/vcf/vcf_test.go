package vcf

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

const sample = `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr1	1001	rs1	A	G	50	PASS	.
chr1	badpos	rs2	A	G	50	PASS	.
chr2	2002	.	C	T	99	PASS	.
`

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.vcf")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	variants, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("parsed %d variants, want 2", len(variants))
	}
	v := variants[0]
	if v.Contig != "chr1" || v.Pos != 1001 || v.Ref != "A" || v.Alt != "G" || v.ID != "rs1" {
		t.Fatalf("variant 0 = %+v", v)
	}
}

func TestReadFileGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.vcf.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(sample)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	variants, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("parsed %d variants, want 2", len(variants))
	}
}
