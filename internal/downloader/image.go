package downloader

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/folio/folio/internal/catalog"
)

// ErrNotImage is the cause of a fetch error for non-image content.
var ErrNotImage = errors.New("response is not an image")

// Image is downloaded cover art.
type Image struct {
	Data []byte
	Ext  string // with leading dot
}

var imageExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
}

// ImageDownloader fetches binary image content.
type ImageDownloader struct {
	next Downloader
	site catalog.SiteName
}

// NewImageDownloader wraps next. Any site specific validator should already
// be installed on next, since it runs before the content type check.
func NewImageDownloader(next Downloader, site catalog.SiteName) *ImageDownloader {
	return &ImageDownloader{next: next, site: site}
}

// Fetch downloads url and returns its bytes with an extension inferred from
// the content type.
func (d *ImageDownloader) Fetch(ctx context.Context, url string, headers map[string]string) (*Image, error) {
	req := Request{URL: url, NoCache: true}
	if len(headers) > 0 {
		req.Headers = make(http.Header, len(headers))
		for k, v := range headers {
			req.Headers.Set(k, v)
		}
	}
	resp, err := d.next.Download(ctx, req)
	if err != nil {
		return nil, err
	}

	ct := resp.ContentType()
	if !strings.HasPrefix(ct, "image/") || len(resp.Body) == 0 {
		return nil, catalog.NewFetchError(d.site, url, ErrNotImage)
	}

	ext, ok := imageExtensions[ct]
	if !ok {
		ext = "." + strings.TrimPrefix(ct, "image/")
	}
	return &Image{Data: resp.Body, Ext: ext}, nil
}

// FixJPEGContentType rewrites the non-standard image/jpg and image/JPEG
// content types some servers send.
func FixJPEGContentType(resp *Response) error {
	switch strings.TrimSpace(resp.Header.Get("Content-Type")) {
	case "image/jpg", "image/JPEG", "image/JPG":
		resp.Header.Set("Content-Type", "image/jpeg")
	}
	return nil
}

// CoverRef names a resource for cover storage.
type CoverRef struct {
	IDType  catalog.IDType
	IDValue string
}

// CoverPath returns where a cover for ref is stored under baseDir, as
// {baseDir}/{idType}/{idValue}{ext}.
func CoverPath(baseDir string, ref CoverRef, ext string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(ref.IDValue)
	return filepath.Join(baseDir, string(ref.IDType), name+ext)
}
