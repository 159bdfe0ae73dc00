package googlebooks

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// Searcher queries the volumes endpoint.
type Searcher struct {
	dl      downloader.Downloader
	apiBase string
	apiKey  string
}

// NewSearcher creates a searcher. An empty apiBase uses DefaultAPIBase.
func NewSearcher(env sites.Env, apiBase, apiKey string) *Searcher {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Searcher{dl: env.Search, apiBase: strings.TrimRight(apiBase, "/"), apiKey: apiKey}
}

// Name implements sites.Searcher.
func (s *Searcher) Name() catalog.SiteName {
	return catalog.SiteGoogleBooks
}

// Search implements sites.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error) {
	params := url.Values{}
	params.Set("country", "us")
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(sites.Offset(page)))
	params.Set("maxResults", strconv.Itoa(sites.SearchPageSize))
	params.Set("maxAllowedMaturityRating", "MATURE")
	if s.apiKey != "" {
		params.Set("key", s.apiKey)
	}
	u := s.apiBase + "/volumes?" + params.Encode()

	resp, err := s.dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}

	var body struct {
		Items []volume `json:"items"`
	}
	if err := resp.JSON(&body); err != nil {
		return nil, catalog.WrapParseError(catalog.SiteGoogleBooks, u, "search response", err)
	}

	items := make([]catalog.SearchResultItem, 0, len(body.Items))
	for _, v := range body.Items {
		vi := v.VolumeInfo
		if v.ID == "" || vi.Title == "" {
			continue
		}
		brief := vi.Description
		if brief == "" {
			brief = v.SearchInfo.TextSnippet
		}
		items = append(items, catalog.SearchResultItem{
			Category:      catalog.CategoryBook,
			SourceSite:    catalog.SiteGoogleBooks,
			SourceURL:     volumeURLBase + v.ID,
			DisplayTitle:  vi.Title,
			Subtitle:      strings.TrimSpace(vi.PublishedDate + " " + strings.Join(vi.Authors, ", ")),
			Brief:         brief,
			CoverImageURL: vi.ImageLinks["thumbnail"],
		})
	}
	return items, nil
}
