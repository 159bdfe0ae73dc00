package bibliotekdk

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

var coverHeaders = map[string]string{"Accept": "*/*", "User-Agent": userAgent}

// Edition scrapes one manifestation of a work. Its id is
// "<workId>/<pid>", so the canonical URL stays under the work page.
type Edition struct {
	dl     downloader.Downloader
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewEdition creates the edition adapter.
func NewEdition(env sites.Env) *Edition {
	return &Edition{
		dl:     env.Scrape,
		images: env.Images(catalog.SiteBibliotekDK, downloader.FixJPEGContentType),
		logger: env.Logger.With().Str("component", "bibliotekdk").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Edition) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteBibliotekDK,
		IDType:      catalog.IDTypeBibliotekDKEdition,
		Model:       catalog.ModelEdition,
		Category:    catalog.CategoryBook,
		URLPatterns: []string{editionPattern},
		SampleIDs:   []string{"work-of:870970-basis:62101946/870970-basis:62101946"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Edition) IDToURL(id string) string {
	return materialBase + id
}

// Scrape implements sites.Adapter.
func (a *Edition) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	workID, pid, ok := strings.Cut(id, "/")
	if !ok || pid == "" {
		return nil, catalog.NewParseError(catalog.SiteBibliotekDK, a.IDToURL(id), "edition id")
	}

	pageURL := a.IDToURL(id)
	w, err := fetchWork(ctx, a.dl, pageURL)
	if err != nil {
		return nil, err
	}
	m := w.manifestation(pid)
	if m == nil {
		return nil, catalog.NewParseError(catalog.SiteBibliotekDK, pageURL, "manifestation "+pid)
	}

	rc := extractEdition(w, m)
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, rc.Metadata.CoverImageURL, coverHeaders)
	rc.Require(catalog.RequiredResource{
		Model:   catalog.ModelWork,
		IDType:  catalog.IDTypeBibliotekDKWork,
		IDValue: workID,
		Title:   w.title(),
		URL:     materialBase + workID,
	})
	return rc, nil
}

// Work scrapes a work page and republishes each of its manifestations as a
// required edition carrying full content, so editions need no second fetch.
type Work struct {
	dl     downloader.Downloader
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewWork creates the work adapter.
func NewWork(env sites.Env) *Work {
	return &Work{
		dl:     env.Scrape,
		images: env.Images(catalog.SiteBibliotekDK, downloader.FixJPEGContentType),
		logger: env.Logger.With().Str("component", "bibliotekdk").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Work) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteBibliotekDK,
		IDType:      catalog.IDTypeBibliotekDKWork,
		Model:       catalog.ModelWork,
		Category:    catalog.CategoryBook,
		URLPatterns: []string{workPattern},
		SampleIDs:   []string{"work-of:870970-basis:62101946"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Work) IDToURL(id string) string {
	return materialBase + id
}

// Scrape implements sites.Adapter.
func (a *Work) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	w, err := fetchWork(ctx, a.dl, a.IDToURL(id))
	if err != nil {
		return nil, err
	}

	title := w.title()
	md := catalog.Metadata{
		Title:          title,
		LocalizedTitle: []catalog.LocalizedText{{Lang: language, Text: title}},
		Language:       language,
		CoverImageURL:  w.coverURL(nil),
	}
	for _, c := range w.Creators {
		md.Authors = append(md.Authors, c.Display)
	}
	if d := w.description(); d != "" {
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: language, Text: d}}
		md.Brief = d
	}

	rc := catalog.NewResourceContent(md)
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, coverHeaders)

	for i := range w.Manifestations.All {
		m := &w.Manifestations.All[i]
		if m.PID == "" {
			continue
		}
		editionID := id + "/" + m.PID
		rc.Require(catalog.RequiredResource{
			Model:   catalog.ModelEdition,
			IDType:  catalog.IDTypeBibliotekDKEdition,
			IDValue: editionID,
			Title:   title,
			URL:     materialBase + editionID,
			Content: extractEdition(w, m),
		})
	}
	return rc, nil
}
