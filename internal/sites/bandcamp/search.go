package bandcamp

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

const searchURL = "https://bandcamp.com/search"

// Searcher scrapes the album search page.
type Searcher struct {
	dl downloader.Downloader
}

// NewSearcher creates a searcher.
func NewSearcher(env sites.Env) *Searcher {
	return &Searcher{dl: env.Search}
}

// Name implements sites.Searcher.
func (s *Searcher) Name() catalog.SiteName {
	return catalog.SiteBandcamp
}

// Search implements sites.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("from", "results")
	params.Set("item_type", "a")
	params.Set("page", strconv.Itoa(page))
	params.Set("q", query)
	u := searchURL + "?" + params.Encode()

	resp, err := s.dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}
	doc, err := resp.HTML()
	if err != nil {
		return nil, catalog.WrapParseError(catalog.SiteBandcamp, u, "html", err)
	}

	var items []catalog.SearchResultItem
	doc.Find("li.searchresult").Each(func(_ int, sel *goquery.Selection) {
		link, _ := sel.Find(".itemurl a").First().Attr("href")
		link = stripQuery(strings.TrimSpace(link))
		title := strings.TrimSpace(sel.Find(".heading").First().Text())
		if link == "" || title == "" {
			return
		}
		cover, _ := sel.Find(".art img").First().Attr("src")
		subtitle := strings.Join(strings.Fields(sel.Find(".subhead").First().Text()), " ")
		released := strings.TrimPrefix(strings.TrimSpace(sel.Find(".released").First().Text()), "released ")

		items = append(items, catalog.SearchResultItem{
			Category:      catalog.CategoryMusic,
			SourceSite:    catalog.SiteBandcamp,
			SourceURL:     link,
			DisplayTitle:  title,
			Subtitle:      strings.TrimSpace(released + " " + subtitle),
			CoverImageURL: cover,
		})
	})
	return items, nil
}

func stripQuery(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		return link[:i]
	}
	return link
}
