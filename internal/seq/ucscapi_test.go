package seq

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

func TestUCSCClientFetchChunksAndReassembles(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/getData/sequence" {
			http.NotFound(w, r)
			return
		}
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		end, _ := strconv.Atoi(r.URL.Query().Get("end"))
		dna := make([]byte, end-start)
		for i := range dna {
			dna[i] = "acgt"[(start+i)%4]
		}
		fmt.Fprintf(w, `{"dna": %q}`, dna)
	}))
	defer srv.Close()

	c, err := NewUCSCClient(srv.URL, "hg38")
	if err != nil {
		t.Fatalf("NewUCSCClient: %v", err)
	}

	region := genome.Region{Contig: "chr1", Start: 1, End: 1 + maxChunkBases + 100}
	got, err := c.Fetch(context.Background(), region)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != region.Len() {
		t.Fatalf("len = %d, want %d", len(got), region.Len())
	}
	if calls != 2 {
		t.Fatalf("api calls = %d, want 2", calls)
	}
	// Responses are upper-cased and phase-continuous across the chunk seam.
	for i, b := range got {
		if want := "ACGT"[i%4]; b != want {
			t.Fatalf("base %d = %c, want %c", i, b, want)
		}
	}
}

func TestUCSCClientErrorsAreDataSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewUCSCClient(srv.URL, "hg38")
	if err != nil {
		t.Fatalf("NewUCSCClient: %v", err)
	}
	_, err = c.Fetch(context.Background(), genome.Region{Contig: "chr1", Start: 1, End: 10})
	if err == nil {
		t.Fatal("Fetch should fail")
	}
	if tgverr.KindOf(err) != tgverr.DataSourceUnavailable {
		t.Fatalf("kind = %v, want DataSourceUnavailable", tgverr.KindOf(err))
	}
}
