package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/tgvdev/tgv/internal/tgverr"
)

// s3Object serves ReadAt through ranged GetObject calls. The SDK picks up
// credentials and region from the usual AWS_* environment variables.
type s3Object struct {
	ctx    context.Context
	client *s3.S3
	bucket string
	key    string
	size   int64
}

func openS3(ctx context.Context, uri string) (Object, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.ParseCommand, err, "parse s3 uri")
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, tgverr.New(tgverr.ParseCommand, "bad s3 uri %q", uri)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "init aws session")
	}
	client := s3.New(sess)

	head, err := client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "head s3 object")
	}

	return &s3Object{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		key:    key,
		size:   aws.Int64Value(head.ContentLength),
	}, nil
}

func (o *s3Object) Size() int64 { return o.size }

func (o *s3Object) Close() error { return nil }

func (o *s3Object) ReadAt(p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), o.size) - 1

	out, err := o.client.GetObjectWithContext(o.ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "s3 range read")
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p[:end-off+1])
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}
