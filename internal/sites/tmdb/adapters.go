package tmdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// Movie scrapes a TMDB movie.
type Movie struct {
	client *Client
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewMovie creates the movie adapter.
func NewMovie(env sites.Env, cfg Config) *Movie {
	return &Movie{
		client: NewClient(env.Scrape, cfg, env.Logger),
		images: env.Images(catalog.SiteTMDB, nil),
		logger: env.Logger.With().Str("component", "tmdb").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Movie) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteTMDB,
		IDType:      catalog.IDTypeTMDBMovie,
		Model:       catalog.ModelMovie,
		Category:    catalog.CategoryMovie,
		URLPatterns: []string{`https://(?:[\w-]+\.)?themoviedb\.org/movie/(\d+)(?:-[^/?#]*)?`},
		SampleIDs:   []string{"438631"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Movie) IDToURL(id string) string {
	return siteBaseURL + "/movie/" + id
}

// Scrape implements sites.Adapter.
func (a *Movie) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	d, err := a.client.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Title == "" {
		return nil, catalog.NewParseError(catalog.SiteTMDB, a.IDToURL(id), "title")
	}

	md := catalog.Metadata{
		Title:          d.Title,
		OrigTitle:      d.OriginalTitle,
		LocalizedTitle: localized(d.OriginalLanguage, d.OriginalTitle, d.Title),
		Brief:          d.Overview,
		ReleaseDate:    d.ReleaseDate,
		PubYear:        year(d.ReleaseDate),
		Language:       d.OriginalLanguage,
		OfficialSite:   d.Homepage,
		Genres:         genreNames(d.Genres),
		CoverImageURL:  ImageURL(d.PosterPath),
	}
	if d.Credits != nil {
		for _, c := range d.Credits.Crew {
			if c.Job == "Director" {
				md.Directors = append(md.Directors, c.Name)
			}
		}
	}
	if d.Overview != "" {
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: "en", Text: d.Overview}}
	}

	rc := catalog.NewResourceContent(md)
	imdb := d.ImdbID
	if imdb == "" && d.ExternalIDs != nil {
		imdb = d.ExternalIDs.ImdbID
	}
	rc.SetLookupID(catalog.IDTypeIMDB, imdb)
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, nil)
	return rc, nil
}

// TV scrapes a TMDB series.
type TV struct {
	client *Client
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewTV creates the series adapter.
func NewTV(env sites.Env, cfg Config) *TV {
	return &TV{
		client: NewClient(env.Scrape, cfg, env.Logger),
		images: env.Images(catalog.SiteTMDB, nil),
		logger: env.Logger.With().Str("component", "tmdb").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *TV) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteTMDB,
		IDType:      catalog.IDTypeTMDBTV,
		Model:       catalog.ModelTVShow,
		Category:    catalog.CategoryTV,
		URLPatterns: []string{`https://(?:[\w-]+\.)?themoviedb\.org/tv/(\d+)(?:-[^/?#]*)?`},
		SampleIDs:   []string{"1399"},
	}
}

// IDToURL implements sites.Adapter.
func (a *TV) IDToURL(id string) string {
	return siteBaseURL + "/tv/" + id
}

// Scrape implements sites.Adapter.
func (a *TV) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	d, err := a.client.GetTV(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		return nil, catalog.NewParseError(catalog.SiteTMDB, a.IDToURL(id), "name")
	}

	md := catalog.Metadata{
		Title:          d.Name,
		OrigTitle:      d.OriginalName,
		LocalizedTitle: localized(d.OriginalLanguage, d.OriginalName, d.Name),
		Brief:          d.Overview,
		ReleaseDate:    d.FirstAirDate,
		PubYear:        year(d.FirstAirDate),
		Language:       d.OriginalLanguage,
		OfficialSite:   d.Homepage,
		Genres:         genreNames(d.Genres),
		CoverImageURL:  ImageURL(d.PosterPath),
	}
	for _, c := range d.CreatedBy {
		md.Directors = append(md.Directors, c.Name)
	}
	if d.Overview != "" {
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: "en", Text: d.Overview}}
	}

	rc := catalog.NewResourceContent(md)
	if d.ExternalIDs != nil {
		rc.SetLookupID(catalog.IDTypeIMDB, d.ExternalIDs.ImdbID)
	}
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, nil)
	return rc, nil
}

func localized(origLang, origTitle, title string) []catalog.LocalizedText {
	out := []catalog.LocalizedText{{Lang: "en", Text: title}}
	if origTitle != "" && origTitle != title && origLang != "" {
		out = append(out, catalog.LocalizedText{Lang: origLang, Text: origTitle})
	}
	return out
}

func genreNames(genres []Genre) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		out = append(out, g.Name)
	}
	return out
}

func year(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, _ := strconv.Atoi(strings.TrimSpace(date[:4]))
	return y
}
