package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tgvdev/tgv/internal/tgverr"
)

const httpTimeout = 30 * time.Second

// httpObject serves ReadAt through HTTP range requests.
type httpObject struct {
	ctx    context.Context
	client *http.Client
	uri    string
	size   int64
}

func openHTTP(ctx context.Context, uri string) (Object, error) {
	obj := &httpObject{
		ctx:    ctx,
		client: &http.Client{Timeout: httpTimeout},
		uri:    uri,
	}

	// A 1-byte ranged GET both verifies range support and reveals the size
	// via Content-Range. Some FTP-over-HTTP gateways reject HEAD.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.Internal, err, "build range probe")
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := obj.client.Do(req)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "probe alignment url")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusPartialContent {
		return nil, tgverr.New(tgverr.DataSourceUnavailable,
			"server does not support range requests (%s)", resp.Status)
	}
	size, err := sizeFromContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "parse content range")
	}
	obj.size = size
	return obj, nil
}

func sizeFromContentRange(header string) (int64, error) {
	// Content-Range: bytes 0-0/12345
	_, total, ok := strings.Cut(header, "/")
	if !ok {
		return 0, fmt.Errorf("missing total in %q", header)
	}
	return strconv.ParseInt(total, 10, 64)
}

func (o *httpObject) Size() int64 { return o.size }

func (o *httpObject) Close() error { return nil }

func (o *httpObject) ReadAt(p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), o.size) - 1

	req, err := http.NewRequestWithContext(o.ctx, http.MethodGet, o.uri, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))
	resp, err := o.client.Do(req)
	if err != nil {
		return 0, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "range read")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return 0, tgverr.New(tgverr.DataSourceUnavailable, "range read returned %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:end-off+1])
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == nil && n < len(p) {
		err = io.EOF // clamped at object size
	}
	return n, err
}
