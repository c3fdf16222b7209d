// Package storage opens alignment URIs as seekable readers. Local files are
// opened directly; remote objects (http(s), s3, gs, ftp) are wrapped in a
// byte-range reader so the BAM decoder can seek through its index without
// downloading the whole file. Credentials follow the htslib environment
// conventions (AWS_*, GOOGLE_APPLICATION_CREDENTIALS).
package storage

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/tgvdev/tgv/internal/tgverr"
)

// Object is a random-access handle on an alignment file.
type Object interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Open resolves a URI (a bare path implies file://) to an Object.
func Open(ctx context.Context, uri string) (Object, error) {
	scheme := ""
	if u, err := url.Parse(uri); err == nil {
		scheme = strings.ToLower(u.Scheme)
	}
	switch scheme {
	case "", "file":
		return openFile(strings.TrimPrefix(uri, "file://"))
	case "http", "https":
		return openHTTP(ctx, uri)
	case "s3":
		return openS3(ctx, uri)
	case "gs":
		return openGS(ctx, uri)
	case "ftp":
		return openFTP(ctx, uri)
	}
	return nil, tgverr.New(tgverr.ParseCommand, "unsupported scheme %q", scheme)
}

// NewSeeker adapts an Object into the io.ReadSeeker the BAM reader consumes.
func NewSeeker(obj Object) io.ReadSeeker {
	return io.NewSectionReader(obj, 0, obj.Size())
}

type fileObject struct {
	*os.File
	size int64
}

func (f *fileObject) Size() int64 { return f.size }

func openFile(path string) (Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open alignment file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "stat alignment file")
	}
	return &fileObject{File: f, size: info.Size()}, nil
}

// SiblingIndexURIs lists the conventional .bai locations next to a BAM URI,
// in preference order.
func SiblingIndexURIs(bamURI string) []string {
	out := []string{bamURI + ".bai"}
	if strings.HasSuffix(bamURI, ".bam") {
		out = append(out, strings.TrimSuffix(bamURI, ".bam")+".bai")
	}
	return out
}

// ReadAll slurps a whole object; used for (small) index files.
func ReadAll(obj Object) ([]byte, error) {
	buf := make([]byte, obj.Size())
	_, err := obj.ReadAt(buf, 0)
	if err == io.EOF {
		err = nil
	}
	return buf, err
}
