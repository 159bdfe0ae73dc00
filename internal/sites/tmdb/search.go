package tmdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/sites"
)

// Searcher runs TMDB multi search and keeps movies and series.
type Searcher struct {
	client *Client
}

// NewSearcher creates a searcher.
func NewSearcher(env sites.Env, cfg Config) *Searcher {
	return &Searcher{client: NewClient(env.Search, cfg, env.Logger)}
}

// Name implements sites.Searcher.
func (s *Searcher) Name() catalog.SiteName {
	return catalog.SiteTMDB
}

// Search implements sites.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error) {
	resp, err := s.client.SearchMulti(ctx, query, page)
	if err != nil {
		return nil, err
	}

	var items []catalog.SearchResultItem
	for _, r := range resp.Results {
		var item catalog.SearchResultItem
		switch r.MediaType {
		case "movie":
			item = catalog.SearchResultItem{
				Category:     catalog.CategoryMovie,
				DisplayTitle: r.Title,
				Subtitle:     strings.TrimSpace(r.ReleaseDate + " " + differentOrEmpty(r.OriginalTitle, r.Title)),
			}
		case "tv":
			item = catalog.SearchResultItem{
				Category:     catalog.CategoryTV,
				DisplayTitle: r.Name,
				Subtitle:     strings.TrimSpace(r.FirstAirDate + " " + differentOrEmpty(r.OriginalName, r.Name)),
			}
		default:
			continue
		}
		if item.DisplayTitle == "" {
			continue
		}
		item.SourceSite = catalog.SiteTMDB
		item.SourceURL = siteBaseURL + "/" + r.MediaType + "/" + strconv.Itoa(r.ID)
		item.Brief = r.Overview
		item.CoverImageURL = ImageURL(r.PosterPath)
		items = append(items, item)
	}
	return items, nil
}

func differentOrEmpty(orig, title string) string {
	if orig == title {
		return ""
	}
	return orig
}
