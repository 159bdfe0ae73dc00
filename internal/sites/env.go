package sites

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
)

// Env carries the collaborators every adapter package is built from.
type Env struct {
	// Scrape fetches primary content with retries.
	Scrape downloader.Downloader
	// Search fetches search pages with a single short attempt.
	Search downloader.Downloader
	// Proxy is used by sources that block direct fetches. Falls back to Scrape.
	Proxy downloader.Downloader
	// ImageBase is the single-attempt downloader cover images build on.
	ImageBase *downloader.Basic
	// ImageRetries is the attempt count for cover downloads.
	ImageRetries int

	Logger zerolog.Logger
}

// ProxyOrScrape returns the proxy downloader when configured.
func (e Env) ProxyOrScrape() downloader.Downloader {
	if e.Proxy != nil {
		return e.Proxy
	}
	return e.Scrape
}

// Images returns an image downloader for site, with validate run before
// the content type check.
func (e Env) Images(site catalog.SiteName, validate downloader.ValidateFunc) *downloader.ImageDownloader {
	base := e.ImageBase
	if base == nil {
		base = downloader.New(downloader.Options{Logger: e.Logger})
	}
	if validate != nil {
		base = base.WithValidate(validate)
	}
	return downloader.NewImageDownloader(downloader.NewRetry(base, e.ImageRetries), site)
}

// FetchCover downloads a cover. Failures are logged and leave the content
// without cover bytes, since a missing image never invalidates a scrape.
func FetchCover(ctx context.Context, img *downloader.ImageDownloader, logger zerolog.Logger, url string, headers map[string]string) ([]byte, string) {
	if url == "" || img == nil {
		return nil, ""
	}
	image, err := img.Fetch(ctx, url, headers)
	if err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("Cover download failed")
		return nil, ""
	}
	return image.Data, image.Ext
}
