// Package goodreads scrapes books and works from goodreads.com and searches
// its HTML search page.
package goodreads

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

const baseURL = "https://www.goodreads.com"

var workURLRe = regexp.MustCompile(`/work/editions/(\d+)`)

type apolloRef struct {
	Ref string `json:"__ref"`
}

type apolloBook struct {
	Typename               string `json:"__typename"`
	Title                  string `json:"title"`
	TitleComplete          string `json:"titleComplete"`
	Description            string `json:"description"`
	ImageURL               string `json:"imageUrl"`
	WebURL                 string `json:"webUrl"`
	PrimaryContributorEdge *struct {
		Node apolloRef `json:"node"`
		Role string    `json:"role"`
	} `json:"primaryContributorEdge"`
	SecondaryContributorEdges []struct {
		Node apolloRef `json:"node"`
		Role string    `json:"role"`
	} `json:"secondaryContributorEdges"`
	Details struct {
		ISBN            string   `json:"isbn"`
		ISBN13          string   `json:"isbn13"`
		ASIN            string   `json:"asin"`
		NumPages        int      `json:"numPages"`
		PublicationTime *float64 `json:"publicationTime"`
		Publisher       string   `json:"publisher"`
		Format          string   `json:"format"`
		Language        struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"details"`
	BookSeries []struct {
		Series apolloRef `json:"series"`
	} `json:"bookSeries"`
	Work *apolloRef `json:"work"`
}

type apolloWork struct {
	Details struct {
		WebURL        string `json:"webUrl"`
		OriginalTitle string `json:"originalTitle"`
	} `json:"details"`
}

type apolloNamed struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type bookPage struct {
	Props struct {
		PageProps struct {
			ApolloState map[string]json.RawMessage `json:"apolloState"`
		} `json:"pageProps"`
	} `json:"props"`
}

// parseBookPage extracts edition content from a book page response.
func parseBookPage(resp *downloader.Response) (*catalog.ResourceContent, error) {
	src, err := sites.NextData(catalog.SiteGoodreads, resp)
	if err != nil {
		return nil, err
	}
	var page bookPage
	if err := json.Unmarshal(src, &page); err != nil {
		return nil, catalog.WrapParseError(catalog.SiteGoodreads, resp.URL, "__NEXT_DATA__ json", err)
	}
	state := page.Props.PageProps.ApolloState

	book := findBook(state)
	if book == nil {
		return nil, catalog.NewParseError(catalog.SiteGoodreads, resp.URL, "apolloState book")
	}

	lookup := func(ref apolloRef, v any) bool {
		raw, ok := state[ref.Ref]
		return ok && json.Unmarshal(raw, v) == nil
	}

	md := catalog.Metadata{
		Title:         book.Title,
		Brief:         book.Description,
		CoverImageURL: book.ImageURL,
		Pages:         book.Details.NumPages,
		PubHouse:      book.Details.Publisher,
		Binding:       book.Details.Format,
		Language:      book.Details.Language.Name,
	}
	if book.TitleComplete != "" && book.TitleComplete != book.Title {
		if sub, ok := strings.CutPrefix(book.TitleComplete, book.Title+": "); ok {
			md.Subtitle = sub
		}
	}
	if book.Description != "" {
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: "en", Text: book.Description}}
	}
	// Epoch milliseconds; books before 1970 are negative.
	if pt := book.Details.PublicationTime; pt != nil {
		t := time.UnixMilli(int64(*pt)).UTC()
		md.PubYear, md.PubMonth = t.Year(), int(t.Month())
	}
	if e := book.PrimaryContributorEdge; e != nil {
		var c apolloNamed
		if lookup(e.Node, &c) && c.Name != "" {
			md.Authors = append(md.Authors, c.Name)
		}
	}
	for _, e := range book.SecondaryContributorEdges {
		var c apolloNamed
		if !lookup(e.Node, &c) || c.Name == "" {
			continue
		}
		switch strings.ToLower(e.Role) {
		case "translator":
			md.Translators = append(md.Translators, c.Name)
		case "author":
			md.Authors = append(md.Authors, c.Name)
		}
	}
	if len(book.BookSeries) > 0 {
		var s apolloNamed
		if lookup(book.BookSeries[0].Series, &s) {
			md.Series = s.Title
		}
	}

	md.ISBN = catalog.CleanISBN(book.Details.ISBN13)
	if md.ISBN == "" {
		md.ISBN = catalog.CleanISBN(book.Details.ISBN)
	}

	rc := catalog.NewResourceContent(md)
	rc.SetLookupID(catalog.IDTypeISBN, md.ISBN)

	if book.Work != nil {
		var w apolloWork
		if lookup(*book.Work, &w) {
			if m := workURLRe.FindStringSubmatch(w.Details.WebURL); m != nil {
				if w.Details.OriginalTitle != "" && w.Details.OriginalTitle != md.Title {
					rc.Metadata.OrigTitle = w.Details.OriginalTitle
				}
				rc.Require(catalog.RequiredResource{
					Model:   catalog.ModelWork,
					IDType:  catalog.IDTypeGoodreadsWork,
					IDValue: m[1],
					Title:   md.Title,
					URL:     w.Details.WebURL,
				})
			}
		}
	}
	return rc, nil
}

// findBook returns the book the page is about. The root query references it
// by legacy id; other Book entries on the page are recommendations.
func findBook(state map[string]json.RawMessage) *apolloBook {
	decode := func(key string) *apolloBook {
		var b apolloBook
		if err := json.Unmarshal(state[key], &b); err != nil || b.Title == "" {
			return nil
		}
		return &b
	}

	var root map[string]json.RawMessage
	if json.Unmarshal(state["ROOT_QUERY"], &root) == nil {
		for k, raw := range root {
			if !strings.HasPrefix(k, "getBookByLegacyId") {
				continue
			}
			var ref apolloRef
			if json.Unmarshal(raw, &ref) == nil {
				if b := decode(ref.Ref); b != nil {
					return b
				}
			}
		}
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		if strings.HasPrefix(k, "Book:") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if b := decode(k); b != nil {
			return b
		}
	}
	return nil
}

// Book scrapes a Goodreads edition page.
type Book struct {
	dl     downloader.Downloader
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewBook creates the edition adapter.
func NewBook(env sites.Env) *Book {
	return &Book{
		dl:     env.Scrape,
		images: env.Images(catalog.SiteGoodreads, nil),
		logger: env.Logger.With().Str("component", "goodreads").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Book) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteGoodreads,
		IDType:      catalog.IDTypeGoodreads,
		Model:       catalog.ModelEdition,
		Category:    catalog.CategoryBook,
		URLPatterns: []string{`https://(?:[\w-]+\.)?goodreads\.com/book/show/(\d+)(?:[.\-_][^/?#]*)?`},
		SampleIDs:   []string{"234225"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Book) IDToURL(id string) string {
	return baseURL + "/book/show/" + id
}

// Scrape implements sites.Adapter.
func (a *Book) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	resp, err := a.dl.Download(ctx, downloader.Request{URL: a.IDToURL(id)})
	if err != nil {
		return nil, err
	}
	rc, err := parseBookPage(resp)
	if err != nil {
		return nil, err
	}
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, rc.Metadata.CoverImageURL, nil)
	return rc, nil
}

// Work scrapes a Goodreads work editions page.
type Work struct {
	dl downloader.Downloader
}

// NewWork creates the work adapter.
func NewWork(env sites.Env) *Work {
	return &Work{dl: env.Scrape}
}

// Info implements sites.Adapter.
func (a *Work) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteGoodreads,
		IDType:      catalog.IDTypeGoodreadsWork,
		Model:       catalog.ModelWork,
		Category:    catalog.CategoryBook,
		URLPatterns: []string{`https://(?:[\w-]+\.)?goodreads\.com/work/editions/(\d+)(?:[.\-_][^/?#]*)?`},
		SampleIDs:   []string{"3634639"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Work) IDToURL(id string) string {
	return baseURL + "/work/editions/" + id
}

// Scrape implements sites.Adapter.
func (a *Work) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	u := a.IDToURL(id)
	resp, err := a.dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}
	doc, err := resp.HTML()
	if err != nil {
		return nil, catalog.WrapParseError(catalog.SiteGoodreads, u, "html", err)
	}

	title := strings.TrimSpace(doc.Find(`h1 a[href*="/book/show/"]`).First().Text())
	if title == "" {
		return nil, catalog.NewParseError(catalog.SiteGoodreads, u, "title")
	}
	md := catalog.Metadata{Title: title}
	if author := strings.TrimSpace(doc.Find(`h1 a[href*="/author/show/"]`).First().Text()); author != "" {
		md.Authors = []string{author}
	}
	if year := strings.TrimSpace(doc.Find(`.workInfo .originalPublicationYear`).First().Text()); year != "" {
		md.PubYear, _ = strconv.Atoi(year)
	}
	return catalog.NewResourceContent(md), nil
}

// BypassScrape builds work content from the title an edition declared.
func (a *Work) BypassScrape(link catalog.RequiredResource) (*catalog.ResourceContent, bool) {
	if link.Title == "" {
		return nil, false
	}
	return catalog.NewResourceContent(catalog.Metadata{Title: link.Title}), true
}
