package spotify

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/sites"
)

type searchResponse struct {
	Albums struct {
		Items []albumResponse `json:"items"`
	} `json:"albums"`
}

// Searcher queries the album search endpoint.
type Searcher struct {
	api api
}

// NewSearcher creates a searcher.
func NewSearcher(env sites.Env, apiBase string, tokens sites.TokenProvider) *Searcher {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Searcher{api: api{dl: env.Search, base: apiBase, tokens: tokens}}
}

// Name implements sites.Searcher.
func (s *Searcher) Name() catalog.SiteName {
	return catalog.SiteSpotify
}

// Search implements sites.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "album")
	params.Set("limit", strconv.Itoa(sites.SearchPageSize))
	params.Set("offset", strconv.Itoa(sites.Offset(page)))

	var res searchResponse
	if err := s.api.get(ctx, "/search", params, &res); err != nil {
		return nil, err
	}

	items := make([]catalog.SearchResultItem, 0, len(res.Albums.Items))
	for _, a := range res.Albums.Items {
		if a.ID == "" || a.Name == "" {
			continue
		}
		items = append(items, catalog.SearchResultItem{
			Category:      catalog.CategoryMusic,
			SourceSite:    catalog.SiteSpotify,
			SourceURL:     albumURL + a.ID,
			DisplayTitle:  a.Name,
			Subtitle:      strings.TrimSpace(a.ReleaseDate + " " + strings.Join(artistNames(a.Artists), ", ")),
			CoverImageURL: largest(a.Images),
		})
	}
	return items, nil
}
