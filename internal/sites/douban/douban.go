// Package douban scrapes book editions and works from Douban.
package douban

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// ErrBlocked is the cause of a fetch error when Douban serves its
// anti-crawler page instead of content.
var ErrBlocked = errors.New("douban blocked the request")

var reWorkURL = regexp.MustCompile(`^https?://book\.douban\.com/works/(\d+)`)

var blockedMarkers = []string{"检测到有异常请求", "禁止访问", "sec.douban.com"}

func fetchHTML(ctx context.Context, dl downloader.Downloader, u string) (*goquery.Document, error) {
	resp, err := dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}
	body := string(resp.Body)
	for _, m := range blockedMarkers {
		if strings.Contains(body, m) {
			return nil, catalog.NewFetchError(catalog.SiteDouban, u, ErrBlocked)
		}
	}
	doc, err := resp.HTML()
	if err != nil {
		return nil, catalog.WrapParseError(catalog.SiteDouban, u, "html", err)
	}
	return doc, nil
}

// Book scrapes a Douban book edition.
type Book struct {
	dl     downloader.Downloader
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewBook creates the edition adapter. Douban blocks most direct fetches,
// so the proxy downloader is used when one is configured.
func NewBook(env sites.Env) *Book {
	return &Book{
		dl:     env.ProxyOrScrape(),
		images: env.Images(catalog.SiteDouban, nil),
		logger: env.Logger.With().Str("component", "douban").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Book) Info() sites.Info {
	return sites.Info{
		Site:   catalog.SiteDouban,
		IDType: catalog.IDTypeDoubanBook,
		Model:  catalog.ModelEdition,
		URLPatterns: []string{
			`https://book\.douban\.com/subject/(\d+)`,
			`https://m\.douban\.com/book/subject/(\d+)`,
		},
		SampleIDs:     []string{"35902899"},
		Category:      catalog.CategoryBook,
		ProxyRequired: true,
	}
}

// IDToURL implements sites.Adapter.
func (a *Book) IDToURL(id string) string {
	return "https://book.douban.com/subject/" + id + "/"
}

// Scrape implements sites.Adapter.
func (a *Book) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	u := a.IDToURL(id)
	doc, err := fetchHTML(ctx, a.dl, u)
	if err != nil {
		return nil, err
	}
	in := newInfo(doc)

	title := strings.TrimSpace(doc.Find("body h1 span").First().Text())
	if title == "" {
		title = "Unknown Title " + id
	}

	md := catalog.Metadata{
		Title:       title,
		Subtitle:    truncate(in.text("副标题"), 500),
		OrigTitle:   truncate(in.text("原作名"), 500),
		Language:    in.text("语言"),
		PubHouse:    in.text("出版社"),
		Binding:     in.text("装帧"),
		Price:       in.text("定价"),
		Pages:       parsePages(in.text("页数")),
		Authors:     in.links("作者"),
		Translators: in.links("译者"),
		Brief:       brief(doc),
	}
	md.PubYear, md.PubMonth = parsePubDate(in.text("出版年"))
	if series := in.links("丛书"); len(series) > 0 {
		md.Series = series[0]
	}
	md.LocalizedTitle = []catalog.LocalizedText{{Lang: "zh", Text: title}}
	if md.Brief != "" {
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: "zh", Text: md.Brief}}
	}
	md.CoverImageURL, _ = doc.Find("#mainpic a img").First().Attr("src")
	md.CoverImageURL = strings.TrimSpace(md.CoverImageURL)

	isbn := in.text("ISBN")
	md.ISBN = catalog.CleanISBN(isbn)
	cubn := in.text("统一书号")

	rc := catalog.NewResourceContent(md)
	if md.ISBN != "" {
		rc.SetLookupID(catalog.IDTypeISBN, md.ISBN)
	}
	rc.SetLookupID(catalog.IDTypeCUBN, cubn)

	if href, ok := worksLink(doc); ok {
		if m := reWorkURL.FindStringSubmatch(href); m != nil {
			rc.Require(catalog.RequiredResource{
				Model:   catalog.ModelWork,
				IDType:  catalog.IDTypeDoubanBookWork,
				IDValue: m[1],
				Title:   title,
				URL:     href,
			})
		}
	}

	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, map[string]string{"Referer": u})
	return rc, nil
}

func brief(doc *goquery.Document) string {
	var paras []string
	doc.Find("h2 span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "内容简介"
	}).First().Parent().NextAllFiltered("div").First().
		Find("div.intro").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("span.short").Length() == 0
	}).Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n")
}

func worksLink(doc *goquery.Document) (string, bool) {
	return doc.Find("h2 span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "这本书的其他版本"
	}).First().NextAllFiltered("span.pl").Find("a").First().Attr("href")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Work scrapes a Douban work, the grouping of a book's editions.
type Work struct {
	dl downloader.Downloader
}

// NewWork creates the work adapter.
func NewWork(env sites.Env) *Work {
	return &Work{dl: env.ProxyOrScrape()}
}

// Info implements sites.Adapter.
func (a *Work) Info() sites.Info {
	return sites.Info{
		Site:          catalog.SiteDouban,
		IDType:        catalog.IDTypeDoubanBookWork,
		Model:         catalog.ModelWork,
		URLPatterns:   []string{`https://book\.douban\.com/works/(\d+)`},
		SampleIDs:     []string{"1008677"},
		Category:      catalog.CategoryBook,
		ProxyRequired: true,
	}
}

// IDToURL implements sites.Adapter.
func (a *Work) IDToURL(id string) string {
	return "https://book.douban.com/works/" + id + "/"
}

// Scrape implements sites.Adapter.
func (a *Work) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	u := a.IDToURL(id)
	doc, err := fetchHTML(ctx, a.dl, u)
	if err != nil {
		return nil, err
	}
	h1 := doc.Find("h1").First().Text()
	title, _, _ := strings.Cut(h1, "全部版本(")
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, catalog.NewParseError(catalog.SiteDouban, u, "title")
	}
	return catalog.NewResourceContent(catalog.Metadata{
		Title:          title,
		LocalizedTitle: []catalog.LocalizedText{{Lang: "zh", Text: title}},
	}), nil
}

// BypassScrape builds the work from the link an edition declared.
func (a *Work) BypassScrape(link catalog.RequiredResource) (*catalog.ResourceContent, bool) {
	if link.Title == "" {
		return nil, false
	}
	return catalog.NewResourceContent(catalog.Metadata{
		Title:          link.Title,
		LocalizedTitle: []catalog.LocalizedText{{Lang: "zh", Text: link.Title}},
	}), true
}
