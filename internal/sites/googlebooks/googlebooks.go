// Package googlebooks reads volumes from the Google Books API.
package googlebooks

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// DefaultAPIBase is the Books API root.
const DefaultAPIBase = "https://www.googleapis.com/books/v1"

const volumeURLBase = "https://books.google.com/books?id="

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		Description         string   `json:"description"`
		PageCount           int      `json:"pageCount"`
		Language            string   `json:"language"`
		Categories          []string `json:"categories"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		ImageLinks map[string]string `json:"imageLinks"`
	} `json:"volumeInfo"`
	SearchInfo struct {
		TextSnippet string `json:"textSnippet"`
	} `json:"searchInfo"`
}

func (v *volume) isbn() string {
	var isbn10 string
	for _, id := range v.VolumeInfo.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			if s := catalog.CleanISBN(id.Identifier); s != "" {
				return s
			}
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return catalog.CleanISBN(isbn10)
}

// cover picks the largest image the API offers.
func (v *volume) cover() string {
	for _, size := range []string{"extraLarge", "large", "medium", "small", "thumbnail", "smallThumbnail"} {
		if u := v.VolumeInfo.ImageLinks[size]; u != "" {
			return strings.Replace(u, "http://", "https://", 1)
		}
	}
	return ""
}

// Volume scrapes one volume through the API.
type Volume struct {
	dl      downloader.Downloader
	images  *downloader.ImageDownloader
	apiBase string
	apiKey  string
	logger  zerolog.Logger
}

// NewVolume creates the adapter. An empty apiBase uses DefaultAPIBase.
func NewVolume(env sites.Env, apiBase, apiKey string) *Volume {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Volume{
		dl:      env.Scrape,
		images:  env.Images(catalog.SiteGoogleBooks, nil),
		apiBase: strings.TrimRight(apiBase, "/"),
		apiKey:  apiKey,
		logger:  env.Logger.With().Str("component", "googlebooks").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Volume) Info() sites.Info {
	return sites.Info{
		Site:   catalog.SiteGoogleBooks,
		IDType: catalog.IDTypeGoogleBooks,
		Model:  catalog.ModelEdition,
		URLPatterns: []string{
			`https://books\.google\.[^/]+/books\?id=([^&#]+)`,
			`https://books\.google\.[^/]+/books/about/[^?#]+\?id=([^&#]+)`,
			`https://books\.google\.[^/]+/books\?[^#]*&id=([^&#]+)`,
			`https://www\.google\.[^/]+/books/edition/[^/?#]+/([^&#?/]+)`,
		},
		SampleIDs: []string{"B1hSG45JCX4C"},
		Category:  catalog.CategoryBook,
	}
}

// IDToURL implements sites.Adapter.
func (a *Volume) IDToURL(id string) string {
	return volumeURLBase + id
}

// Scrape implements sites.Adapter.
func (a *Volume) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	u := a.apiBase + "/volumes/" + url.PathEscape(id)
	if a.apiKey != "" {
		u += "?key=" + url.QueryEscape(a.apiKey)
	}
	resp, err := a.dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}

	var v volume
	if err := resp.JSON(&v); err != nil {
		return nil, catalog.WrapParseError(catalog.SiteGoogleBooks, u, "volume", err)
	}
	vi := v.VolumeInfo
	if vi.Title == "" {
		return nil, catalog.NewParseError(catalog.SiteGoogleBooks, u, "title")
	}

	md := catalog.Metadata{
		Title:         vi.Title,
		Subtitle:      vi.Subtitle,
		Authors:       vi.Authors,
		PubHouse:      vi.Publisher,
		Pages:         vi.PageCount,
		Language:      vi.Language,
		Brief:         vi.Description,
		Genres:        vi.Categories,
		ISBN:          v.isbn(),
		CoverImageURL: v.cover(),
	}
	md.PubYear, md.PubMonth = parseDate(vi.PublishedDate)
	if vi.Description != "" {
		lang := vi.Language
		if lang == "" {
			lang = "en"
		}
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: lang, Text: vi.Description}}
	}

	rc := catalog.NewResourceContent(md)
	rc.SetLookupID(catalog.IDTypeISBN, md.ISBN)
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, nil)
	return rc, nil
}

// parseDate reads "2005", "2005-08" or "2005-08-02".
func parseDate(s string) (year, month int) {
	parts := strings.Split(s, "-")
	if len(parts) > 0 {
		year, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		month, _ = strconv.Atoi(parts[1])
	}
	return year, month
}
