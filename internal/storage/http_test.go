package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func rangeServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spec := strings.TrimPrefix(r.Header.Get("Range"), "bytes=")
		lo, hi, ok := strings.Cut(spec, "-")
		if !ok {
			http.Error(w, "no range", http.StatusBadRequest)
			return
		}
		start, _ := strconv.Atoi(lo)
		end, _ := strconv.Atoi(hi)
		if end >= len(payload) {
			end = len(payload) - 1
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(payload)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(payload[start : end+1])
	}))
}

func TestHTTPObjectRangeReads(t *testing.T) {
	payload := []byte("0123456789abcdefghij")
	srv := rangeServer(t, payload)
	defer srv.Close()

	obj, err := Open(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer obj.Close()

	if obj.Size() != int64(len(payload)) {
		t.Fatalf("Size = %d, want %d", obj.Size(), len(payload))
	}

	buf := make([]byte, 5)
	if _, err := obj.ReadAt(buf, 10); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "abcde" {
		t.Fatalf("ReadAt = %q, want abcde", buf)
	}

	// Reads past the end return the tail plus EOF.
	n, err := obj.ReadAt(buf, 17)
	if err != io.EOF {
		t.Fatalf("ReadAt past end err = %v, want EOF", err)
	}
	if n != 3 || string(buf[:n]) != "hij" {
		t.Fatalf("ReadAt past end = %q (%d)", buf[:n], n)
	}
}

func TestHTTPObjectThroughSeeker(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	srv := rangeServer(t, payload)
	defer srv.Close()

	obj, err := Open(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer obj.Close()

	rs := NewSeeker(obj)
	if _, err := rs.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got, err := io.ReadAll(rs)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(payload[4:]) {
		t.Fatalf("ReadAll = %q", got)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "gopher://example.com/a.bam"); err == nil {
		t.Fatal("Open should reject unknown schemes")
	}
}
