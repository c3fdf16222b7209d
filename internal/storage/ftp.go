package storage

import (
	"context"
	"io"
	"net/url"
	"sync"

	"github.com/jlaffaye/ftp"

	"github.com/tgvdev/tgv/internal/tgverr"
)

// ftpObject serves ReadAt through RETR-with-offset on a single control
// connection. FTP servers allow one transfer per connection, so reads are
// serialized.
type ftpObject struct {
	mu   sync.Mutex
	conn *ftp.ServerConn
	path string
	size int64
}

func openFTP(ctx context.Context, uri string) (Object, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.ParseCommand, err, "parse ftp uri")
	}
	host := u.Host
	if u.Port() == "" {
		host += ":21"
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx))
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "dial ftp")
	}

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "ftp login")
	}

	size, err := conn.FileSize(u.Path)
	if err != nil {
		_ = conn.Quit()
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "ftp size")
	}

	return &ftpObject{conn: conn, path: u.Path, size: size}, nil
}

func (o *ftpObject) Size() int64 { return o.size }

func (o *ftpObject) Close() error { return o.conn.Quit() }

func (o *ftpObject) ReadAt(p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	resp, err := o.conn.RetrFrom(o.path, uint64(off))
	if err != nil {
		return 0, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "ftp range read")
	}
	want := min(int64(len(p)), o.size-off)
	n, err := io.ReadFull(resp, p[:want])
	_ = resp.Close()
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}
