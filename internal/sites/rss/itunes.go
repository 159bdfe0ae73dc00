package rss

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// DefaultITunesSearchURL is the Apple Podcasts directory search endpoint.
const DefaultITunesSearchURL = "https://itunes.apple.com/search"

type itunesResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		CollectionName string   `json:"collectionName"`
		ArtistName     string   `json:"artistName"`
		FeedURL        string   `json:"feedUrl"`
		ArtworkURL600  string   `json:"artworkUrl600"`
		ArtworkURL100  string   `json:"artworkUrl100"`
		Genres         []string `json:"genres"`
	} `json:"results"`
}

// ApplePodcasts searches the iTunes directory. Results point at the
// podcast feeds, so they resolve through the feed adapter.
type ApplePodcasts struct {
	dl       downloader.Downloader
	endpoint string
}

// NewApplePodcasts creates the searcher.
func NewApplePodcasts(env sites.Env, endpoint string) *ApplePodcasts {
	if endpoint == "" {
		endpoint = DefaultITunesSearchURL
	}
	return &ApplePodcasts{dl: env.Search, endpoint: endpoint}
}

// Name implements sites.Searcher.
func (s *ApplePodcasts) Name() catalog.SiteName {
	return catalog.SiteApplePodcast
}

// Search implements sites.Searcher. The API has no offset, so the first
// page*5 results are requested and the page is sliced out of them.
func (s *ApplePodcasts) Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("entity", "podcast")
	params.Set("limit", strconv.Itoa(page*sites.SearchPageSize))
	params.Set("term", query)
	u := s.endpoint + "?" + params.Encode()

	resp, err := s.dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}
	var res itunesResponse
	if err := resp.JSON(&res); err != nil {
		return nil, catalog.WrapParseError(catalog.SiteApplePodcast, u, "response body", err)
	}

	offset := sites.Offset(page)
	if offset >= len(res.Results) {
		return nil, nil
	}

	var items []catalog.SearchResultItem
	for _, r := range res.Results[offset:] {
		if r.FeedURL == "" {
			continue
		}
		cover := r.ArtworkURL600
		if cover == "" {
			cover = r.ArtworkURL100
		}
		items = append(items, catalog.SearchResultItem{
			Category:      catalog.CategoryPodcast,
			SourceSite:    catalog.SiteRSS,
			SourceURL:     r.FeedURL,
			DisplayTitle:  r.CollectionName,
			Subtitle:      strings.TrimSpace(r.ArtistName),
			Brief:         strings.Join(r.Genres, ", "),
			CoverImageURL: cover,
		})
	}
	return items, nil
}
