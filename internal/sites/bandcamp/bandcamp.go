// Package bandcamp scrapes album pages and search results from Bandcamp.
package bandcamp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// albumLD is the schema.org MusicAlbum block embedded in album pages.
type albumLD struct {
	Name          string `json:"name"`
	DatePublished string `json:"datePublished"`
	Description   string `json:"description"`
	Image         any    `json:"image"`
	Keywords      any    `json:"keywords"`
	ByArtist      struct {
		Name string `json:"name"`
	} `json:"byArtist"`
	Publisher struct {
		Name string `json:"name"`
	} `json:"publisher"`
	Track struct {
		ItemListElement []struct {
			Position int `json:"position"`
			Item     struct {
				Name string `json:"name"`
			} `json:"item"`
		} `json:"itemListElement"`
	} `json:"track"`
	AlbumRelease []struct {
		MusicReleaseFormat string `json:"musicReleaseFormat"`
		Identifier         any    `json:"identifier"`
	} `json:"albumRelease"`
}

// Album scrapes a Bandcamp album page.
type Album struct {
	dl     downloader.Downloader
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewAlbum creates the album adapter.
func NewAlbum(env sites.Env) *Album {
	return &Album{
		dl:     env.Scrape,
		images: env.Images(catalog.SiteBandcamp, nil),
		logger: env.Logger.With().Str("component", "bandcamp").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Album) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteBandcamp,
		IDType:      catalog.IDTypeBandcamp,
		Model:       catalog.ModelAlbum,
		Category:    catalog.CategoryMusic,
		URLPatterns: []string{`https://([a-z0-9\-]+\.bandcamp\.com/album/[^?#/]+)`},
		SampleIDs:   []string{"intlanthem.bandcamp.com/album/in-the-pines"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Album) IDToURL(id string) string {
	return "https://" + id
}

// Scrape implements sites.Adapter.
func (a *Album) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	u := a.IDToURL(id)
	resp, err := a.dl.Download(ctx, downloader.Request{URL: u})
	if err != nil {
		return nil, err
	}
	doc, err := resp.HTML()
	if err != nil {
		return nil, catalog.WrapParseError(catalog.SiteBandcamp, u, "html", err)
	}

	var ld albumLD
	if raw := doc.Find(`script[type="application/ld+json"]`).First().Text(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ld); err != nil {
			a.logger.Debug().Err(err).Str("url", u).Msg("Ignoring malformed ld+json")
		}
	}

	title := strings.TrimSpace(doc.Find("h2.trackTitle").First().Text())
	if title == "" {
		title = strings.TrimSpace(ld.Name)
	}
	if title == "" {
		return nil, catalog.NewParseError(catalog.SiteBandcamp, u, "album title")
	}

	artist := strings.TrimSpace(doc.Find("#name-section h3 span a").First().Text())
	if artist == "" {
		artist = ld.ByArtist.Name
	}

	md := catalog.Metadata{
		Title:          title,
		LocalizedTitle: []catalog.LocalizedText{{Lang: "en", Text: title}},
		Brief:          strings.TrimSpace(ld.Description),
		PubHouse:       ld.Publisher.Name,
		Genres:         stringList(ld.Keywords),
		CoverImageURL:  firstString(ld.Image),
	}
	if artist != "" {
		md.Artists = []string{artist}
	}
	if md.CoverImageURL == "" {
		md.CoverImageURL, _ = doc.Find("#tralbumArt a.popupImage").Attr("href")
	}
	if t, ok := parseDate(ld.DatePublished); ok {
		md.ReleaseDate = t.Format(time.DateOnly)
		md.PubYear = t.Year()
		md.PubMonth = int(t.Month())
	}

	var tracks []string
	for _, e := range ld.Track.ItemListElement {
		if e.Item.Name != "" {
			tracks = append(tracks, e.Item.Name)
		}
	}
	if len(tracks) == 0 {
		doc.Find("#track_table .track-title").Each(func(_ int, s *goquery.Selection) {
			tracks = append(tracks, strings.TrimSpace(s.Text()))
		})
	}
	md.TrackList = strings.Join(tracks, "\n")

	rc := catalog.NewResourceContent(md)
	for _, r := range ld.AlbumRelease {
		if gtin := upc(r.Identifier); gtin != "" {
			rc.SetLookupID(catalog.IDTypeGTIN, gtin)
			break
		}
	}
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, nil)
	return rc, nil
}

// parseDate reads the "02 Jan 2006 15:04:05 GMT" stamps album pages carry.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"02 Jan 2006 15:04:05 MST", time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		for _, e := range x {
			if s, ok := e.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		var out []string
		for _, p := range strings.Split(x, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		var out []string
		for _, e := range x {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// upc pulls the UPC out of an albumRelease identifier, which is either a
// bare string or a list of PropertyValue objects.
func upc(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := m["name"].(string); strings.EqualFold(name, "upc") {
			val, _ := m["value"].(string)
			return strings.TrimSpace(val)
		}
	}
	return ""
}
