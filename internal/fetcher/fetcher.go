// Package fetcher opens listing feeds and override files from local paths,
// HTTP(S) and FTP, and decodes CSV, JSON and XLSX rows.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher opens a remote or local resource for reading.
type Fetcher interface {
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// Router dispatches to a Fetcher by URL scheme. Paths without a scheme and
// file:// URLs are read from disk.
type Router struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewRouter creates a Router with default HTTP and FTP fetchers.
func NewRouter(httpOpts HTTPOptions, ftpOpts FTPOptions) *Router {
	return &Router{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Open implements Fetcher.
func (r *Router) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	scheme := ""
	if i := strings.Index(rawURL, "://"); i > 0 {
		scheme = strings.ToLower(rawURL[:i])
	}

	switch scheme {
	case "", "file":
		return openFile(rawURL)
	case "http", "https":
		if r.HTTP == nil {
			return nil, eris.New("fetcher: no http fetcher configured")
		}
		return r.HTTP.Open(ctx, rawURL)
	case "ftp":
		if r.FTP == nil {
			return nil, eris.New("fetcher: no ftp fetcher configured")
		}
		return r.FTP.Open(ctx, rawURL)
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", scheme)
	}
}

func openFile(rawURL string) (io.ReadCloser, error) {
	path := rawURL
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: parse file url")
		}
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}
