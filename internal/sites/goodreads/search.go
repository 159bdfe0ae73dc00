package goodreads

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

var browserHeaders = map[string][]string{
	"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	"Accept-Language": {"en-US,en;q=0.5"},
	"DNT":             {"1"},
	"Cache-Control":   {"no-cache"},
}

// Searcher scrapes the Goodreads search page.
type Searcher struct {
	dl downloader.Downloader
}

// NewSearcher creates a searcher.
func NewSearcher(env sites.Env) *Searcher {
	return &Searcher{dl: env.Search}
}

// Name implements sites.Searcher.
func (s *Searcher) Name() catalog.SiteName {
	return catalog.SiteGoodreads
}

// Search implements sites.Searcher. A query that uniquely identifies a book,
// such as an ISBN, redirects to the book page, which is parsed in place.
func (s *Searcher) Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("q", query)
	searchURL := baseURL + "/search?" + params.Encode()

	resp, err := s.dl.Download(ctx, downloader.Request{URL: searchURL, Headers: browserHeaders})
	if err != nil {
		return nil, err
	}

	if final, err := url.Parse(resp.URL); err == nil && strings.HasPrefix(final.Path, "/book/show/") {
		rc, err := parseBookPage(resp)
		if err != nil {
			return nil, err
		}
		md := rc.Metadata
		return []catalog.SearchResultItem{{
			Category:      catalog.CategoryBook,
			SourceSite:    catalog.SiteGoodreads,
			SourceURL:     baseURL + final.Path,
			DisplayTitle:  md.Title,
			Subtitle:      strings.Join(md.Authors, ", "),
			Brief:         md.Brief,
			CoverImageURL: md.CoverImageURL,
		}}, nil
	}

	doc, err := resp.HTML()
	if err != nil {
		return nil, catalog.WrapParseError(catalog.SiteGoodreads, searchURL, "html", err)
	}

	var items []catalog.SearchResultItem
	doc.Find(`tr[itemtype="http://schema.org/Book"]`).Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.bookTitle").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			return
		}
		var authors []string
		row.Find("a.authorName").Each(func(_ int, a *goquery.Selection) {
			if name := strings.TrimSpace(a.Text()); name != "" {
				authors = append(authors, name)
			}
		})
		cover, _ := row.Find("img.bookCover").Attr("src")
		items = append(items, catalog.SearchResultItem{
			Category:      catalog.CategoryBook,
			SourceSite:    catalog.SiteGoodreads,
			SourceURL:     baseURL + href,
			DisplayTitle:  title,
			Subtitle:      strings.Join(authors, ", "),
			CoverImageURL: cover,
		})
	})
	return items, nil
}
