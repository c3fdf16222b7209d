package storage

import (
	"context"
	"io"
	"net/url"
	"strings"

	gstorage "cloud.google.com/go/storage"

	"github.com/tgvdev/tgv/internal/tgverr"
)

// gsObject serves ReadAt through GCS range readers, following the htsget
// server's use of NewRangeReader for BAM block access.
type gsObject struct {
	ctx    context.Context
	client *gstorage.Client
	handle *gstorage.ObjectHandle
	size   int64
}

func openGS(ctx context.Context, uri string) (Object, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.ParseCommand, err, "parse gs uri")
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, tgverr.New(tgverr.ParseCommand, "bad gs uri %q", uri)
	}

	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "init gcs client")
	}
	handle := client.Bucket(bucket).Object(key)
	attrs, err := handle.Attrs(ctx)
	if err != nil {
		_ = client.Close()
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "stat gcs object")
	}
	return &gsObject{ctx: ctx, client: client, handle: handle, size: attrs.Size}, nil
}

func (o *gsObject) Size() int64 { return o.size }

func (o *gsObject) Close() error { return o.client.Close() }

func (o *gsObject) ReadAt(p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	length := min(int64(len(p)), o.size-off)

	r, err := o.handle.NewRangeReader(o.ctx, off, length)
	if err != nil {
		return 0, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "gcs range read")
	}
	defer r.Close()

	n, err := io.ReadFull(r, p[:length])
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}
