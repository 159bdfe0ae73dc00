// Package rss reads podcast feeds and searches the Apple Podcasts directory.
package rss

import (
	"bytes"
	"context"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// Podcast scrapes an RSS or Atom podcast feed. The id is the feed URL
// without its scheme.
type Podcast struct {
	dl     downloader.Downloader
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewPodcast creates the feed adapter.
func NewPodcast(env sites.Env) *Podcast {
	return &Podcast{
		dl:     env.Scrape,
		images: env.Images(catalog.SiteRSS, nil),
		logger: env.Logger.With().Str("component", "rss").Logger(),
	}
}

// feedPattern accepts any https URL with a dotted host. The query string is
// part of the id since private feeds carry their token there.
const feedPattern = `https://([\w-]+(?:\.[\w-]+)+(?::\d+)?(?:[/?][^#]*)?)`

// Info implements sites.Adapter. The pattern captures every https URL, so
// this adapter is registered after every other one and Scrape decides
// whether the document is a feed.
func (a *Podcast) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteRSS,
		IDType:      catalog.IDTypeRSS,
		Model:       catalog.ModelPodcast,
		Category:    catalog.CategoryPodcast,
		URLPatterns: []string{feedPattern},
		SampleIDs:   []string{"feeds.example.org/podcast.rss", "feeds.megaphone.fm/GLT1412515089"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Podcast) IDToURL(id string) string {
	return "https://" + id
}

// Scrape implements sites.Adapter.
func (a *Podcast) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	u := a.IDToURL(id)
	resp, err := a.dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, catalog.WrapParseError(catalog.SiteRSS, u, "feed", err)
	}
	title := strings.TrimSpace(feed.Title)
	if title == "" {
		return nil, catalog.NewParseError(catalog.SiteRSS, u, "channel title")
	}

	md := catalog.Metadata{
		Title:          title,
		LocalizedTitle: []catalog.LocalizedText{{Lang: feedLang(feed), Text: title}},
		Brief:          strings.TrimSpace(feed.Description),
		Language:       feed.Language,
		OfficialSite:   feed.Link,
		Genres:         feed.Categories,
		CoverImageURL:  coverURL(feed),
	}
	if md.Brief != "" {
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: feedLang(feed), Text: md.Brief}}
	}
	if ext := feed.ITunesExt; ext != nil {
		if ext.Author != "" {
			md.Hosts = []string{ext.Author}
		}
		if len(md.Genres) == 0 {
			for _, c := range ext.Categories {
				md.Genres = append(md.Genres, c.Text)
			}
		}
		if md.Brief == "" {
			md.Brief = ext.Summary
		}
	}
	if len(md.Hosts) == 0 {
		for _, p := range feed.Authors {
			if p != nil && p.Name != "" {
				md.Hosts = append(md.Hosts, p.Name)
			}
		}
	}

	rc := catalog.NewResourceContent(md)
	rc.SetLookupID(catalog.IDTypeRSS, id)
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, nil)
	return rc, nil
}

func coverURL(feed *gofeed.Feed) string {
	if feed.ITunesExt != nil && feed.ITunesExt.Image != "" {
		return feed.ITunesExt.Image
	}
	if feed.Image != nil {
		return feed.Image.URL
	}
	return ""
}

func feedLang(feed *gofeed.Feed) string {
	if feed.Language == "" {
		return "en"
	}
	lang, _, _ := strings.Cut(strings.ToLower(feed.Language), "-")
	return lang
}
